package repository

import (
	"context"
	"time"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

// Flat accessors so *Database satisfies the narrow store interfaces the
// syncer and prediction engine consume.

func (db *Database) UpsertLeague(ctx context.Context, league *models.League) (bool, error) {
	return db.Leagues.Upsert(ctx, league)
}

func (db *Database) LeagueByLeagueID(ctx context.Context, leagueID int) (*models.League, error) {
	return db.Leagues.GetByLeagueID(ctx, leagueID)
}

func (db *Database) UpsertMatch(ctx context.Context, match *models.Match) (bool, error) {
	return db.Matches.Upsert(ctx, match)
}

func (db *Database) UpsertTeam(ctx context.Context, team *models.Team) (bool, error) {
	return db.Teams.Upsert(ctx, team)
}

func (db *Database) TrackedFixtureIDs(ctx context.Context, leagueIDs []int, from, to time.Time) ([]int64, error) {
	return db.Matches.TrackedFixtureIDs(ctx, leagueIDs, from, to)
}

func (db *Database) UpsertPrediction(ctx context.Context, p *models.Prediction) error {
	return db.Predictions.Upsert(ctx, p)
}

func (db *Database) MatchByFixtureID(ctx context.Context, fixtureID int64) (*models.Match, error) {
	return db.Matches.GetByFixtureID(ctx, fixtureID)
}
