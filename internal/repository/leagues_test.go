//go:build integration

package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

func TestLeagueRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	league := &models.League{
		LeagueID:      39,
		Name:          "Premier League",
		Type:          sql.NullString{String: "League", Valid: true},
		Country:       sql.NullString{String: "England", Valid: true},
		CountryCode:   sql.NullString{String: "GB", Valid: true},
		CurrentSeason: sql.NullInt32{Int32: 2024, Valid: true},
		Seasons:       []int{2022, 2023, 2024},
	}

	created, err := db.Leagues.Upsert(ctx, league)
	require.NoError(t, err, "Should successfully insert league")
	assert.True(t, created, "First upsert should report creation")

	retrieved, err := db.Leagues.GetByLeagueID(ctx, league.LeagueID)
	require.NoError(t, err, "Should retrieve inserted league")
	assert.Equal(t, "Premier League", retrieved.Name, "Names should match")
	assert.Equal(t, int32(2024), retrieved.CurrentSeason.Int32, "Current season should match")

	// Second upsert is an update
	league.CurrentSeason = sql.NullInt32{Int32: 2025, Valid: true}
	created, err = db.Leagues.Upsert(ctx, league)
	require.NoError(t, err, "Should successfully update league")
	assert.False(t, created, "Second upsert should report update")

	updated, err := db.Leagues.GetByLeagueID(ctx, league.LeagueID)
	require.NoError(t, err, "Should retrieve updated league")
	assert.Equal(t, int32(2025), updated.CurrentSeason.Int32, "Current season should be updated")
}

func TestLeagueRepository_UpsertMergesSeasons(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	league := &models.League{
		LeagueID: 140,
		Name:     "La Liga",
		Seasons:  []int{2022, 2023},
	}

	_, err := db.Leagues.Upsert(ctx, league)
	require.NoError(t, err, "Should insert league")

	// A later refresh sees a new season; older years must survive the merge
	league.Seasons = []int{2024}
	_, err = db.Leagues.Upsert(ctx, league)
	require.NoError(t, err, "Should update league")

	retrieved, err := db.Leagues.GetByLeagueID(ctx, league.LeagueID)
	require.NoError(t, err, "Should retrieve league")
	assert.ElementsMatch(t, []int{2022, 2023, 2024}, retrieved.Seasons, "Season history should accumulate")
}

func TestLeagueRepository_GetNotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Leagues.GetByLeagueID(ctx, 99999)
	assert.Error(t, err, "Should return error for non-existent league")
}
