package models

import (
	"database/sql"
	"time"
)

// Prediction holds the derived outcome probabilities for a match
type Prediction struct {
	ID          int             `db:"id"`
	FixtureID   int64           `db:"fixture_id"`
	HomeWinProb sql.NullFloat64 `db:"home_win_prob"`
	DrawProb    sql.NullFloat64 `db:"draw_prob"`
	AwayWinProb sql.NullFloat64 `db:"away_win_prob"`
	Advice      sql.NullString  `db:"advice"`
	GeneratedAt time.Time       `db:"generated_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
