package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

// MatchRepository handles match database operations
type MatchRepository struct {
	db *Database
}

// Upsert inserts or updates a match keyed by the provider's fixture ID.
// Returns whether the row was created.
func (r *MatchRepository) Upsert(ctx context.Context, match *models.Match) (bool, error) {
	query := `
		INSERT INTO matches (
			fixture_id, league_id, season, round, home_team_id, away_team_id,
			home_team_name, away_team_name, kickoff_at, status, elapsed,
			home_goals, away_goals
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (fixture_id) DO UPDATE SET
			league_id = EXCLUDED.league_id,
			season = EXCLUDED.season,
			round = EXCLUDED.round,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_team_name = EXCLUDED.home_team_name,
			away_team_name = EXCLUDED.away_team_name,
			kickoff_at = EXCLUDED.kickoff_at,
			status = EXCLUDED.status,
			elapsed = EXCLUDED.elapsed,
			home_goals = EXCLUDED.home_goals,
			away_goals = EXCLUDED.away_goals,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.Pool.QueryRow(
		ctx, query,
		match.FixtureID, match.LeagueID, match.Season, match.Round,
		match.HomeTeamID, match.AwayTeamID, match.HomeTeamName, match.AwayTeamName,
		match.KickoffAt, match.Status, match.Elapsed,
		match.HomeGoals, match.AwayGoals,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt, &inserted)

	if err != nil {
		return false, fmt.Errorf("failed to upsert match: %w", err)
	}

	log.Debug().
		Int64("fixture_id", match.FixtureID).
		Str("status", match.Status).
		Bool("created", inserted).
		Msg("Match upserted")

	return inserted, nil
}

// GetByFixtureID retrieves a match by the provider's fixture ID
func (r *MatchRepository) GetByFixtureID(ctx context.Context, fixtureID int64) (*models.Match, error) {
	query := `
		SELECT id, fixture_id, league_id, season, round, home_team_id, away_team_id,
		       home_team_name, away_team_name, kickoff_at, status, elapsed,
		       home_goals, away_goals, created_at, updated_at
		FROM matches
		WHERE fixture_id = $1
	`

	var match models.Match
	err := r.db.Pool.QueryRow(ctx, query, fixtureID).Scan(
		&match.ID, &match.FixtureID, &match.LeagueID, &match.Season, &match.Round,
		&match.HomeTeamID, &match.AwayTeamID, &match.HomeTeamName, &match.AwayTeamName,
		&match.KickoffAt, &match.Status, &match.Elapsed,
		&match.HomeGoals, &match.AwayGoals, &match.CreatedAt, &match.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("match not found: fixture_id=%d", fixtureID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return &match, nil
}

// TrackedFixtureIDs lists fixture IDs for the given leagues whose kickoff
// falls inside the window and whose result is not yet final. These are the
// fixtures the sync is expected to keep current.
func (r *MatchRepository) TrackedFixtureIDs(ctx context.Context, leagueIDs []int, from, to time.Time) ([]int64, error) {
	query := `
		SELECT fixture_id
		FROM matches
		WHERE league_id = ANY($1)
		  AND kickoff_at >= $2
		  AND kickoff_at <= $3
		  AND status NOT IN ('FT', 'AET', 'PEN', 'CANC', 'ABD', 'AWD', 'WO')
		ORDER BY kickoff_at
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked fixtures: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fixture id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked fixtures: %w", err)
	}

	return ids, nil
}

// ListByLeagueSeason retrieves all matches for a league and season
func (r *MatchRepository) ListByLeagueSeason(ctx context.Context, leagueID, season int) ([]*models.Match, error) {
	query := `
		SELECT id, fixture_id, league_id, season, round, home_team_id, away_team_id,
		       home_team_name, away_team_name, kickoff_at, status, elapsed,
		       home_goals, away_goals, created_at, updated_at
		FROM matches
		WHERE league_id = $1 AND season = $2
		ORDER BY kickoff_at
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueID, season)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var match models.Match
		err := rows.Scan(
			&match.ID, &match.FixtureID, &match.LeagueID, &match.Season, &match.Round,
			&match.HomeTeamID, &match.AwayTeamID, &match.HomeTeamName, &match.AwayTeamName,
			&match.KickoffAt, &match.Status, &match.Elapsed,
			&match.HomeGoals, &match.AwayGoals, &match.CreatedAt, &match.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

// Count returns the total number of matches
func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM matches`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}

	return count, nil
}
