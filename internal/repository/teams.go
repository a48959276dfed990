package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

// Upsert inserts or updates a team keyed by the provider's team ID.
// Returns whether the row was created.
func (r *TeamRepository) Upsert(ctx context.Context, team *models.Team) (bool, error) {
	query := `
		INSERT INTO teams (
			team_id, name, code, country, founded, logo_url
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (team_id) DO UPDATE SET
			name = EXCLUDED.name,
			code = EXCLUDED.code,
			country = EXCLUDED.country,
			founded = EXCLUDED.founded,
			logo_url = EXCLUDED.logo_url,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.Pool.QueryRow(
		ctx, query,
		team.TeamID, team.Name, team.Code, team.Country, team.Founded, team.LogoURL,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt, &inserted)

	if err != nil {
		return false, fmt.Errorf("failed to upsert team: %w", err)
	}

	return inserted, nil
}

// GetByTeamID retrieves a team by the provider's team ID
func (r *TeamRepository) GetByTeamID(ctx context.Context, teamID int) (*models.Team, error) {
	query := `
		SELECT id, team_id, name, code, country, founded, logo_url, created_at, updated_at
		FROM teams
		WHERE team_id = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, teamID).Scan(
		&team.ID, &team.TeamID, &team.Name, &team.Code,
		&team.Country, &team.Founded, &team.LogoURL,
		&team.CreatedAt, &team.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("team not found: team_id=%d", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// List retrieves all teams
func (r *TeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `
		SELECT id, team_id, name, code, country, founded, logo_url, created_at, updated_at
		FROM teams
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var team models.Team
		err := rows.Scan(
			&team.ID, &team.TeamID, &team.Name, &team.Code,
			&team.Country, &team.Founded, &team.LogoURL,
			&team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM teams`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}

	return count, nil
}
