//go:build integration

package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

func testMatch(fixtureID int64, leagueID int, kickoff time.Time, status string) *models.Match {
	return &models.Match{
		FixtureID:    fixtureID,
		LeagueID:     leagueID,
		Season:       2024,
		Round:        sql.NullString{String: "Regular Season - 5", Valid: true},
		HomeTeamID:   sql.NullInt32{Int32: 33, Valid: true},
		AwayTeamID:   sql.NullInt32{Int32: 40, Valid: true},
		HomeTeamName: "Manchester United",
		AwayTeamName: "Liverpool",
		KickoffAt:    kickoff,
		Status:       status,
	}
}

func TestMatchRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	kickoff := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	match := testMatch(1001, 39, kickoff, "NS")

	created, err := db.Matches.Upsert(ctx, match)
	require.NoError(t, err, "Should successfully insert match")
	assert.True(t, created, "First upsert should report creation")

	retrieved, err := db.Matches.GetByFixtureID(ctx, match.FixtureID)
	require.NoError(t, err, "Should retrieve inserted match")
	assert.Equal(t, "NS", retrieved.Status, "Statuses should match")
	assert.Equal(t, "Liverpool", retrieved.AwayTeamName, "Away team should match")

	// Rerun with a final score
	match.Status = "FT"
	match.HomeGoals = sql.NullInt32{Int32: 2, Valid: true}
	match.AwayGoals = sql.NullInt32{Int32: 1, Valid: true}
	created, err = db.Matches.Upsert(ctx, match)
	require.NoError(t, err, "Should successfully update match")
	assert.False(t, created, "Second upsert should report update")

	updated, err := db.Matches.GetByFixtureID(ctx, match.FixtureID)
	require.NoError(t, err, "Should retrieve updated match")
	assert.Equal(t, "FT", updated.Status, "Status should be updated")
	assert.Equal(t, int32(2), updated.HomeGoals.Int32, "Home goals should be recorded")
}

func TestMatchRepository_TrackedFixtureIDs(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	now := time.Now().UTC().Truncate(time.Second)

	// One upcoming, one finished, one outside the window
	upcoming := testMatch(2001, 61, now.Add(2*24*time.Hour), "NS")
	finished := testMatch(2002, 61, now.Add(24*time.Hour), "FT")
	distant := testMatch(2003, 61, now.Add(30*24*time.Hour), "NS")

	for _, m := range []*models.Match{upcoming, finished, distant} {
		_, err := db.Matches.Upsert(ctx, m)
		require.NoError(t, err, "Should insert match")
	}

	ids, err := db.Matches.TrackedFixtureIDs(ctx, []int{61}, now.Add(-24*time.Hour), now.Add(7*24*time.Hour))
	require.NoError(t, err, "Should list tracked fixtures")

	assert.Contains(t, ids, int64(2001), "Upcoming match inside window should be tracked")
	assert.NotContains(t, ids, int64(2002), "Finished match should not be tracked")
	assert.NotContains(t, ids, int64(2003), "Match outside window should not be tracked")
}

func TestMatchRepository_GetNotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Matches.GetByFixtureID(ctx, 99999999)
	assert.Error(t, err, "Should return error for non-existent match")
}
