package models

import (
	"database/sql"
	"fmt"
	"time"
)

// League represents a tracked football competition
type League struct {
	ID            int            `db:"id"`
	LeagueID      int            `db:"league_id"` // provider ID
	Name          string         `db:"name"`
	Type          sql.NullString `db:"type"`
	Country       sql.NullString `db:"country"`
	CountryCode   sql.NullString `db:"country_code"`
	LogoURL       sql.NullString `db:"logo_url"`
	CurrentSeason sql.NullInt32  `db:"current_season"`
	Seasons       []int          `db:"seasons"` // every season year ever observed
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// LeagueItem is one element of the provider's /leagues response array
type LeagueItem struct {
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
		Logo string `json:"logo"`
	} `json:"league"`
	Country struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"country"`
	Seasons []SeasonEntry `json:"seasons"`
}

// SeasonEntry is one season of a league as reported by the provider
type SeasonEntry struct {
	Year    int    `json:"year"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Current bool   `json:"current"`
}

// Validate reports whether the item carries the fields required to store it.
// A failure here is structural: no retry would help.
func (in *LeagueItem) Validate() error {
	if in.League.ID == 0 {
		return fmt.Errorf("league item missing id")
	}
	if in.League.Name == "" {
		return fmt.Errorf("league item %d missing name", in.League.ID)
	}
	return nil
}

// ToLeague converts the provider item to a League row
func (in *LeagueItem) ToLeague() *League {
	league := &League{
		LeagueID: in.League.ID,
		Name:     in.League.Name,
		Type:     nullString(in.League.Type),
		Country:  nullString(in.Country.Name),
	}
	if in.Country.Code != "" {
		league.CountryCode = sql.NullString{String: in.Country.Code, Valid: true}
	}
	if in.League.Logo != "" {
		league.LogoURL = sql.NullString{String: in.League.Logo, Valid: true}
	}

	for _, season := range in.Seasons {
		if season.Year == 0 {
			continue
		}
		league.Seasons = append(league.Seasons, season.Year)
		if season.Current {
			league.CurrentSeason = sql.NullInt32{Int32: int32(season.Year), Valid: true}
		}
	}

	return league
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
