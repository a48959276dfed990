package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

// PredictionRepository handles prediction database operations
type PredictionRepository struct {
	db *Database
}

// Upsert inserts or updates a prediction keyed by fixture ID. A fixture
// carries at most one prediction; regeneration overwrites it.
func (r *PredictionRepository) Upsert(ctx context.Context, p *models.Prediction) error {
	query := `
		INSERT INTO predictions (
			fixture_id, home_win_prob, draw_prob, away_win_prob, advice, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fixture_id) DO UPDATE SET
			home_win_prob = EXCLUDED.home_win_prob,
			draw_prob = EXCLUDED.draw_prob,
			away_win_prob = EXCLUDED.away_win_prob,
			advice = EXCLUDED.advice,
			generated_at = EXCLUDED.generated_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		p.FixtureID, p.HomeWinProb, p.DrawProb, p.AwayWinProb, p.Advice, p.GeneratedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert prediction: %w", err)
	}

	return nil
}

// GetByFixtureID retrieves the prediction for a fixture
func (r *PredictionRepository) GetByFixtureID(ctx context.Context, fixtureID int64) (*models.Prediction, error) {
	query := `
		SELECT id, fixture_id, home_win_prob, draw_prob, away_win_prob, advice,
		       generated_at, created_at, updated_at
		FROM predictions
		WHERE fixture_id = $1
	`

	var p models.Prediction
	err := r.db.Pool.QueryRow(ctx, query, fixtureID).Scan(
		&p.ID, &p.FixtureID, &p.HomeWinProb, &p.DrawProb, &p.AwayWinProb,
		&p.Advice, &p.GeneratedAt, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("prediction not found: fixture_id=%d", fixtureID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return &p, nil
}

// Count returns the total number of predictions
func (r *PredictionRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM predictions`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}

	return count, nil
}
