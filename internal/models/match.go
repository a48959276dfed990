package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Match statuses as reported by the provider's fixture status short codes
var (
	liveStatuses     = map[string]bool{"1H": true, "HT": true, "2H": true, "ET": true, "BT": true, "P": true, "LIVE": true, "INT": true}
	finishedStatuses = map[string]bool{"FT": true, "AET": true, "PEN": true}
)

// Match represents a fixture between two teams
type Match struct {
	ID           int            `db:"id"`
	FixtureID    int64          `db:"fixture_id"` // provider ID
	LeagueID     int            `db:"league_id"`  // provider league ID
	Season       int            `db:"season"`
	Round        sql.NullString `db:"round"`
	HomeTeamID   sql.NullInt32  `db:"home_team_id"`
	AwayTeamID   sql.NullInt32  `db:"away_team_id"`
	HomeTeamName string         `db:"home_team_name"`
	AwayTeamName string         `db:"away_team_name"`
	KickoffAt    time.Time      `db:"kickoff_at"`
	Status       string         `db:"status"`
	Elapsed      sql.NullInt32  `db:"elapsed"`
	HomeGoals    sql.NullInt32  `db:"home_goals"`
	AwayGoals    sql.NullInt32  `db:"away_goals"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// IsLive reports whether the match is currently in play
func (m *Match) IsLive() bool {
	return liveStatuses[m.Status]
}

// IsFinished reports whether the match has a final result
func (m *Match) IsFinished() bool {
	return finishedStatuses[m.Status]
}

// FixtureItem is one element of the provider's /fixtures response array
type FixtureItem struct {
	Fixture struct {
		ID        int64  `json:"id"`
		Date      string `json:"date"` // ISO 8601
		Timestamp int64  `json:"timestamp"`
		Status    struct {
			Long    string `json:"long"`
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int    `json:"id"`
		Season int    `json:"season"`
		Round  string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home FixtureTeamRef `json:"home"`
		Away FixtureTeamRef `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

// FixtureTeamRef identifies one side of a fixture
type FixtureTeamRef struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Winner *bool  `json:"winner"`
}

// Validate reports whether the item carries the fields required to store it
func (in *FixtureItem) Validate() error {
	if in.Fixture.ID == 0 {
		return fmt.Errorf("fixture item missing id")
	}
	if in.League.ID == 0 {
		return fmt.Errorf("fixture %d missing league id", in.Fixture.ID)
	}
	return nil
}

// ToMatch converts the provider item to a Match row
func (in *FixtureItem) ToMatch() (*Match, error) {
	kickoff, err := time.Parse(time.RFC3339, in.Fixture.Date)
	if err != nil {
		if in.Fixture.Timestamp == 0 {
			return nil, fmt.Errorf("fixture %d has no usable kickoff time: %w", in.Fixture.ID, err)
		}
		kickoff = time.Unix(in.Fixture.Timestamp, 0).UTC()
	}

	match := &Match{
		FixtureID:    in.Fixture.ID,
		LeagueID:     in.League.ID,
		Season:       in.League.Season,
		Round:        nullString(in.League.Round),
		HomeTeamName: in.Teams.Home.Name,
		AwayTeamName: in.Teams.Away.Name,
		KickoffAt:    kickoff,
		Status:       in.Fixture.Status.Short,
	}

	if in.Teams.Home.ID != 0 {
		match.HomeTeamID = sql.NullInt32{Int32: int32(in.Teams.Home.ID), Valid: true}
	}
	if in.Teams.Away.ID != 0 {
		match.AwayTeamID = sql.NullInt32{Int32: int32(in.Teams.Away.ID), Valid: true}
	}
	if in.Fixture.Status.Elapsed != nil {
		match.Elapsed = sql.NullInt32{Int32: int32(*in.Fixture.Status.Elapsed), Valid: true}
	}
	if in.Goals.Home != nil {
		match.HomeGoals = sql.NullInt32{Int32: int32(*in.Goals.Home), Valid: true}
	}
	if in.Goals.Away != nil {
		match.AwayGoals = sql.NullInt32{Int32: int32(*in.Goals.Away), Valid: true}
	}

	return match, nil
}
