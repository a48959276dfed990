package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Team represents a football club
type Team struct {
	ID        int            `db:"id"`
	TeamID    int            `db:"team_id"` // provider ID
	Name      string         `db:"name"`
	Code      sql.NullString `db:"code"`
	Country   sql.NullString `db:"country"`
	Founded   sql.NullInt32  `db:"founded"`
	LogoURL   sql.NullString `db:"logo_url"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// TeamItem is one element of the provider's /teams response array
type TeamItem struct {
	Team struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Code    string `json:"code"`
		Country string `json:"country"`
		Founded *int   `json:"founded"`
		Logo    string `json:"logo"`
	} `json:"team"`
	Venue struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		City string `json:"city"`
	} `json:"venue"`
}

// Validate reports whether the item carries the fields required to store it
func (in *TeamItem) Validate() error {
	if in.Team.ID == 0 {
		return fmt.Errorf("team item missing id")
	}
	if in.Team.Name == "" {
		return fmt.Errorf("team item %d missing name", in.Team.ID)
	}
	return nil
}

// ToTeam converts the provider item to a Team row
func (in *TeamItem) ToTeam() *Team {
	team := &Team{
		TeamID:  in.Team.ID,
		Name:    in.Team.Name,
		Code:    nullString(in.Team.Code),
		Country: nullString(in.Team.Country),
		LogoURL: nullString(in.Team.Logo),
	}
	if in.Team.Founded != nil {
		team.Founded = sql.NullInt32{Int32: int32(*in.Team.Founded), Valid: true}
	}
	return team
}

// TeamStatistics is the provider's /teams/statistics response object.
// Unlike the list endpoints this response is a single object, not an array.
type TeamStatistics struct {
	League struct {
		ID     int `json:"id"`
		Season int `json:"season"`
	} `json:"league"`
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Form     string `json:"form"`
	Fixtures struct {
		Played HomeAwayTotal `json:"played"`
		Wins   HomeAwayTotal `json:"wins"`
		Draws  HomeAwayTotal `json:"draws"`
		Loses  HomeAwayTotal `json:"loses"`
	} `json:"fixtures"`
	Goals struct {
		For struct {
			Total HomeAwayTotal `json:"total"`
		} `json:"for"`
		Against struct {
			Total HomeAwayTotal `json:"total"`
		} `json:"against"`
	} `json:"goals"`
}

// HomeAwayTotal splits a counter by venue
type HomeAwayTotal struct {
	Home  int `json:"home"`
	Away  int `json:"away"`
	Total int `json:"total"`
}
