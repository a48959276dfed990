package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

// LeagueRepository handles league database operations
type LeagueRepository struct {
	db *Database
}

// Upsert inserts or updates a league keyed by the provider's league ID.
// The seasons array keeps every year ever observed; new years are merged in,
// never dropped. Returns whether the row was created.
func (r *LeagueRepository) Upsert(ctx context.Context, league *models.League) (bool, error) {
	query := `
		INSERT INTO leagues (
			league_id, name, type, country, country_code, logo_url,
			current_season, seasons
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (league_id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			country = EXCLUDED.country,
			country_code = EXCLUDED.country_code,
			logo_url = EXCLUDED.logo_url,
			current_season = EXCLUDED.current_season,
			seasons = (
				SELECT ARRAY(
					SELECT DISTINCT unnest(leagues.seasons || EXCLUDED.seasons)
					ORDER BY 1
				)
			),
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.Pool.QueryRow(
		ctx, query,
		league.LeagueID, league.Name, league.Type, league.Country,
		league.CountryCode, league.LogoURL, league.CurrentSeason, league.Seasons,
	).Scan(&league.ID, &league.CreatedAt, &league.UpdatedAt, &inserted)

	if err != nil {
		return false, fmt.Errorf("failed to upsert league: %w", err)
	}

	log.Debug().
		Int("league_id", league.LeagueID).
		Str("name", league.Name).
		Bool("created", inserted).
		Msg("League upserted")

	return inserted, nil
}

// GetByLeagueID retrieves a league by the provider's league ID
func (r *LeagueRepository) GetByLeagueID(ctx context.Context, leagueID int) (*models.League, error) {
	query := `
		SELECT id, league_id, name, type, country, country_code, logo_url,
		       current_season, seasons, created_at, updated_at
		FROM leagues
		WHERE league_id = $1
	`

	var league models.League
	err := r.db.Pool.QueryRow(ctx, query, leagueID).Scan(
		&league.ID, &league.LeagueID, &league.Name, &league.Type,
		&league.Country, &league.CountryCode, &league.LogoURL,
		&league.CurrentSeason, &league.Seasons,
		&league.CreatedAt, &league.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("league not found: league_id=%d", leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	return &league, nil
}

// List retrieves all leagues
func (r *LeagueRepository) List(ctx context.Context) ([]*models.League, error) {
	query := `
		SELECT id, league_id, name, type, country, country_code, logo_url,
		       current_season, seasons, created_at, updated_at
		FROM leagues
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []*models.League
	for rows.Next() {
		var league models.League
		err := rows.Scan(
			&league.ID, &league.LeagueID, &league.Name, &league.Type,
			&league.Country, &league.CountryCode, &league.LogoURL,
			&league.CurrentSeason, &league.Seasons,
			&league.CreatedAt, &league.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, &league)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leagues: %w", err)
	}

	return leagues, nil
}

// Count returns the total number of leagues
func (r *LeagueRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM leagues`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leagues: %w", err)
	}

	return count, nil
}
