package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imi1563/Goal-Backend-sub001/internal/client"
	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

type fakeProvider struct {
	mu       sync.Mutex
	leagues  []models.LeagueItem
	fixtures func(q client.FixtureQuery) ([]models.FixtureItem, error)
	byID     map[int64]*models.FixtureItem
	teams    map[int][]models.TeamItem
	queries  []client.FixtureQuery
}

func (p *fakeProvider) FetchLeagues(_ context.Context) ([]models.LeagueItem, error) {
	return p.leagues, nil
}

func (p *fakeProvider) FetchFixtures(_ context.Context, q client.FixtureQuery) ([]models.FixtureItem, error) {
	p.mu.Lock()
	p.queries = append(p.queries, q)
	p.mu.Unlock()
	if p.fixtures == nil {
		return nil, nil
	}
	return p.fixtures(q)
}

func (p *fakeProvider) FetchFixtureByID(_ context.Context, id int64) (*models.FixtureItem, error) {
	return p.byID[id], nil
}

func (p *fakeProvider) FetchTeams(_ context.Context, league, _ int) ([]models.TeamItem, error) {
	return p.teams[league], nil
}

func (p *fakeProvider) queriedSeasons() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	seasons := make([]int, 0, len(p.queries))
	for _, q := range p.queries {
		seasons = append(seasons, q.Season)
	}
	return seasons
}

type fakeStore struct {
	mu      sync.Mutex
	leagues map[int]*models.League
	matches map[int64]*models.Match
	teams   map[int]*models.Team
	tracked []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leagues: make(map[int]*models.League),
		matches: make(map[int64]*models.Match),
		teams:   make(map[int]*models.Team),
	}
}

func (s *fakeStore) UpsertLeague(_ context.Context, league *models.League) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.leagues[league.LeagueID]
	s.leagues[league.LeagueID] = league
	return !exists, nil
}

func (s *fakeStore) LeagueByLeagueID(_ context.Context, leagueID int) (*models.League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	league, ok := s.leagues[leagueID]
	if !ok {
		return nil, fmt.Errorf("league not found: league_id=%d", leagueID)
	}
	return league, nil
}

func (s *fakeStore) UpsertMatch(_ context.Context, match *models.Match) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.matches[match.FixtureID]
	s.matches[match.FixtureID] = match
	return !exists, nil
}

func (s *fakeStore) UpsertTeam(_ context.Context, team *models.Team) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.teams[team.TeamID]
	s.teams[team.TeamID] = team
	return !exists, nil
}

func (s *fakeStore) TrackedFixtureIDs(_ context.Context, _ []int, _, _ time.Time) ([]int64, error) {
	return s.tracked, nil
}

type fakeGenerator struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (g *fakeGenerator) Generate(_ context.Context, fixtureIDs []int64) error {
	g.mu.Lock()
	g.ids = append(g.ids, fixtureIDs...)
	g.mu.Unlock()
	return g.err
}

func leagueItem(id int, name string, seasons ...int) models.LeagueItem {
	var item models.LeagueItem
	item.League.ID = id
	item.League.Name = name
	for i, year := range seasons {
		item.Seasons = append(item.Seasons, models.SeasonEntry{
			Year:    year,
			Current: i == len(seasons)-1,
		})
	}
	return item
}

func fixtureItem(id int64, league, season int) models.FixtureItem {
	var item models.FixtureItem
	item.Fixture.ID = id
	item.Fixture.Date = "2024-09-14T14:00:00+00:00"
	item.Fixture.Status.Short = "NS"
	item.League.ID = league
	item.League.Season = season
	item.Teams.Home.ID = 1
	item.Teams.Home.Name = "Home FC"
	item.Teams.Away.ID = 2
	item.Teams.Away.Name = "Away FC"
	return item
}

func newTestSyncer(provider Provider, store Store, gen Generator) *Syncer {
	s := New(provider, store, nil, gen, Config{
		BatchSize:         10,
		FallbackBatchSize: 10,
		InterBatchDelay:   0,
		FixtureWindowDays: 7,
	})
	s.now = func() time.Time {
		return time.Date(2024, time.September, 10, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestSyncLeagues(t *testing.T) {
	provider := &fakeProvider{leagues: []models.LeagueItem{
		leagueItem(39, "Premier League", 2023, 2024),
		leagueItem(140, "La Liga", 2024),
		leagueItem(0, "broken entry"),
	}}
	store := newFakeStore()
	s := newTestSyncer(provider, store, nil)

	ledger, err := s.SyncLeagues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, ledger.Created)
	assert.Equal(t, 0, ledger.Updated)
	assert.Equal(t, 1, ledger.Skipped, "Item without league id is structural, not an error")
	assert.Equal(t, 0, ledger.Errored)

	require.Contains(t, store.leagues, 39)
	assert.Equal(t, []int{2023, 2024}, store.leagues[39].Seasons)
	assert.Equal(t, int32(2024), store.leagues[39].CurrentSeason.Int32)

	// Second run updates instead of creating.
	ledger, err = s.SyncLeagues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Created)
	assert.Equal(t, 2, ledger.Updated)
}

func TestSyncFixturesTriesSeasonCandidatesInOrder(t *testing.T) {
	store := newFakeStore()
	store.leagues[39] = &models.League{
		LeagueID:      39,
		CurrentSeason: sql.NullInt32{Int32: 2024, Valid: true},
		Seasons:       []int{2023, 2024},
	}

	// Every bulk query comes back empty so all candidates are exercised.
	provider := &fakeProvider{
		fixtures: func(q client.FixtureQuery) ([]models.FixtureItem, error) {
			return nil, nil
		},
	}
	s := newTestSyncer(provider, store, nil)

	_, err := s.SyncFixturesForLeagues(context.Background(), []int{39}, 7)
	require.NoError(t, err)

	// Stored 2024 first; the auto-detected 2024 is deduplicated, then the
	// previous season 2023. Nothing is tried twice.
	assert.Equal(t, []int{2024, 2023}, provider.queriedSeasons())
}

func TestSyncFixturesStopsAtFirstProductiveSeason(t *testing.T) {
	store := newFakeStore()
	store.leagues[39] = &models.League{
		LeagueID:      39,
		CurrentSeason: sql.NullInt32{Int32: 2024, Valid: true},
		Seasons:       []int{2023, 2024},
	}

	provider := &fakeProvider{
		fixtures: func(q client.FixtureQuery) ([]models.FixtureItem, error) {
			if q.Season == 2024 {
				return []models.FixtureItem{fixtureItem(101, 39, 2024)}, nil
			}
			return nil, nil
		},
	}
	s := newTestSyncer(provider, store, nil)

	result, err := s.SyncFixturesForLeagues(context.Background(), []int{39}, 7)
	require.NoError(t, err)

	assert.Equal(t, []int{2024}, provider.queriedSeasons(), "Later candidates must not be queried once one yields fixtures")
	assert.Equal(t, 1, result.Created)
	assert.Contains(t, store.matches, int64(101))
}

func TestSyncFixturesFallbackRecoversMissingTracked(t *testing.T) {
	store := newFakeStore()
	store.leagues[39] = &models.League{
		LeagueID:      39,
		CurrentSeason: sql.NullInt32{Int32: 2024, Valid: true},
		Seasons:       []int{2024},
	}
	store.tracked = []int64{101, 102, 103}

	missing := fixtureItem(102, 39, 2024)
	provider := &fakeProvider{
		fixtures: func(q client.FixtureQuery) ([]models.FixtureItem, error) {
			return []models.FixtureItem{fixtureItem(101, 39, 2024)}, nil
		},
		byID: map[int64]*models.FixtureItem{
			102: &missing,
			// 103 is unknown to the provider
		},
	}
	s := newTestSyncer(provider, store, nil)

	result, err := s.SyncFixturesForLeagues(context.Background(), []int{39}, 7)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created, "Bulk fixture plus fallback fixture")
	assert.Equal(t, 1, result.Fallback)
	assert.Equal(t, 1, result.Skipped, "Fixture unknown to the provider is skipped, not errored")
	assert.Contains(t, store.matches, int64(101))
	assert.Contains(t, store.matches, int64(102))
	assert.NotContains(t, store.matches, int64(103))
}

func TestSyncFixturesDeduplicatesAcrossLeagues(t *testing.T) {
	store := newFakeStore()
	for _, id := range []int{39, 140} {
		store.leagues[id] = &models.League{
			LeagueID:      id,
			CurrentSeason: sql.NullInt32{Int32: 2024, Valid: true},
			Seasons:       []int{2024},
		}
	}

	// Both leagues return the same fixture; it must settle once.
	provider := &fakeProvider{
		fixtures: func(q client.FixtureQuery) ([]models.FixtureItem, error) {
			return []models.FixtureItem{fixtureItem(555, q.League, 2024)}, nil
		},
	}
	s := newTestSyncer(provider, store, nil)

	result, err := s.SyncFixturesForLeagues(context.Background(), []int{39, 140}, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Len(t, result.FixtureIDs, 1)
}

func TestSyncFixturesInvokesGenerator(t *testing.T) {
	store := newFakeStore()
	store.leagues[39] = &models.League{
		LeagueID:      39,
		CurrentSeason: sql.NullInt32{Int32: 2024, Valid: true},
		Seasons:       []int{2024},
	}

	provider := &fakeProvider{
		fixtures: func(q client.FixtureQuery) ([]models.FixtureItem, error) {
			return []models.FixtureItem{fixtureItem(101, 39, 2024)}, nil
		},
	}
	gen := &fakeGenerator{err: fmt.Errorf("model unavailable")}
	s := newTestSyncer(provider, store, gen)

	// A failing generator never fails the sync itself.
	result, err := s.SyncFixturesForLeagues(context.Background(), []int{39}, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, []int64{101}, gen.ids)
}

func TestFetchByIdentifiers(t *testing.T) {
	store := newFakeStore()
	item := fixtureItem(7, 39, 2024)
	provider := &fakeProvider{
		byID: map[int64]*models.FixtureItem{7: &item},
	}
	s := newTestSyncer(provider, store, nil)

	matches, ledger, err := s.FetchByIdentifiers(context.Background(), []int64{7, 8})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, int64(7), matches[0].FixtureID)
	assert.Equal(t, 1, ledger.Created)
	assert.Equal(t, 1, ledger.Skipped)
	assert.Equal(t, 2, ledger.Total())
}

func TestSyncTeamsForLeague(t *testing.T) {
	var team models.TeamItem
	team.Team.ID = 40
	team.Team.Name = "Liverpool"
	var broken models.TeamItem // no id

	provider := &fakeProvider{teams: map[int][]models.TeamItem{
		39: {team, broken},
	}}
	store := newFakeStore()
	s := newTestSyncer(provider, store, nil)

	ledger, err := s.SyncTeamsForLeague(context.Background(), 39, 2024)
	require.NoError(t, err)

	assert.Equal(t, 1, ledger.Created)
	assert.Equal(t, 1, ledger.Skipped)
	assert.Contains(t, store.teams, 40)
}
