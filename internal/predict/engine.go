// Package predict derives simple outcome probabilities for upcoming matches
// from each side's season statistics.
package predict

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

// StatsFetcher is the slice of the API client the engine consumes
type StatsFetcher interface {
	FetchTeamStatistics(ctx context.Context, league, season, team int) (*models.TeamStatistics, error)
}

// Store is the persistence surface the engine consumes
type Store interface {
	MatchByFixtureID(ctx context.Context, fixtureID int64) (*models.Match, error)
	UpsertPrediction(ctx context.Context, p *models.Prediction) error
}

// Engine generates predictions for freshly synchronized fixtures
type Engine struct {
	stats StatsFetcher
	store Store
	now   func() time.Time
}

// NewEngine creates a prediction engine
func NewEngine(stats StatsFetcher, store Store) *Engine {
	return &Engine{
		stats: stats,
		store: store,
		now:   time.Now,
	}
}

// Generate derives and stores a prediction for each fixture. Failures are
// isolated per fixture; the first error is reported after all fixtures have
// been attempted.
func (e *Engine) Generate(ctx context.Context, fixtureIDs []int64) error {
	var firstErr error
	generated := 0

	for _, id := range fixtureIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.generateOne(ctx, id); err != nil {
			log.Warn().Err(err).Int64("fixture_id", id).Msg("Failed to generate prediction")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		generated++
	}

	log.Info().
		Int("requested", len(fixtureIDs)).
		Int("generated", generated).
		Msg("Prediction generation complete")

	return firstErr
}

func (e *Engine) generateOne(ctx context.Context, fixtureID int64) error {
	match, err := e.store.MatchByFixtureID(ctx, fixtureID)
	if err != nil {
		return err
	}

	if match.IsFinished() {
		return nil
	}
	if !match.HomeTeamID.Valid || !match.AwayTeamID.Valid {
		return fmt.Errorf("fixture %d missing team ids", fixtureID)
	}

	home, err := e.stats.FetchTeamStatistics(ctx, match.LeagueID, match.Season, int(match.HomeTeamID.Int32))
	if err != nil {
		return fmt.Errorf("home statistics: %w", err)
	}
	away, err := e.stats.FetchTeamStatistics(ctx, match.LeagueID, match.Season, int(match.AwayTeamID.Int32))
	if err != nil {
		return fmt.Errorf("away statistics: %w", err)
	}

	p := derive(match, home, away, e.now().UTC())
	return e.store.UpsertPrediction(ctx, p)
}

// derive turns the two sides' season records into outcome probabilities.
// Strength is a blend of points-per-game and goal difference per game, with
// a small constant home advantage.
func derive(match *models.Match, home, away *models.TeamStatistics, at time.Time) *models.Prediction {
	homeStrength := strength(home) + 0.15
	awayStrength := strength(away)

	total := homeStrength + awayStrength
	if total <= 0 {
		total = 1
	}

	homeProb := homeStrength / total
	awayProb := awayStrength / total

	// Flatten towards a fixed draw share
	const drawShare = 0.25
	homeProb *= 1 - drawShare
	awayProb *= 1 - drawShare

	p := &models.Prediction{
		FixtureID:   match.FixtureID,
		HomeWinProb: sql.NullFloat64{Float64: round3(homeProb), Valid: true},
		DrawProb:    sql.NullFloat64{Float64: drawShare, Valid: true},
		AwayWinProb: sql.NullFloat64{Float64: round3(awayProb), Valid: true},
		GeneratedAt: at,
	}

	switch {
	case homeProb > awayProb+0.15:
		p.Advice = sql.NullString{String: "Home " + match.HomeTeamName, Valid: true}
	case awayProb > homeProb+0.15:
		p.Advice = sql.NullString{String: "Away " + match.AwayTeamName, Valid: true}
	default:
		p.Advice = sql.NullString{String: "Too close to call", Valid: true}
	}

	return p
}

func strength(stats *models.TeamStatistics) float64 {
	played := stats.Fixtures.Played.Total
	if played == 0 {
		return 0.5
	}

	points := float64(stats.Fixtures.Wins.Total*3 + stats.Fixtures.Draws.Total)
	goalDiff := float64(stats.Goals.For.Total.Total - stats.Goals.Against.Total.Total)

	s := points/float64(played*3) + 0.1*goalDiff/float64(played)
	if s < 0.05 {
		s = 0.05
	}
	return s
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}
