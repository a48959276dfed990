// Package syncer keeps the local store of leagues, matches and teams
// synchronized with the provider, preferring cheap bulk queries and falling
// back to per-fixture lookups for anything the bulk path misses.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/batch"
	"github.com/imi1563/Goal-Backend-sub001/internal/client"
	"github.com/imi1563/Goal-Backend-sub001/internal/models"
)

// Provider is the slice of the API client the syncer consumes
type Provider interface {
	FetchLeagues(ctx context.Context) ([]models.LeagueItem, error)
	FetchFixtures(ctx context.Context, query client.FixtureQuery) ([]models.FixtureItem, error)
	FetchFixtureByID(ctx context.Context, fixtureID int64) (*models.FixtureItem, error)
	FetchTeams(ctx context.Context, league, season int) ([]models.TeamItem, error)
}

// Store is the persistence surface the syncer consumes. Upserts report
// whether a row was created or updated.
type Store interface {
	UpsertLeague(ctx context.Context, league *models.League) (created bool, err error)
	LeagueByLeagueID(ctx context.Context, leagueID int) (*models.League, error)
	UpsertMatch(ctx context.Context, match *models.Match) (created bool, err error)
	UpsertTeam(ctx context.Context, team *models.Team) (created bool, err error)
	// TrackedFixtureIDs lists provider fixture IDs the store expects to be
	// current for the given leagues inside the window (not yet finished).
	TrackedFixtureIDs(ctx context.Context, leagueIDs []int, from, to time.Time) ([]int64, error)
}

// SeasonCache remembers which seasons have been observed per league.
// Implementations may be absent at runtime; the syncer treats it as
// best-effort history.
type SeasonCache interface {
	Seasons(ctx context.Context, leagueID int) ([]int, error)
	AddSeasons(ctx context.Context, leagueID int, seasons []int) error
}

// Generator derives predictions for freshly touched matches
type Generator interface {
	Generate(ctx context.Context, fixtureIDs []int64) error
}

// Config holds syncer tuning knobs
type Config struct {
	BatchSize         int
	FallbackBatchSize int
	InterBatchDelay   time.Duration
	FixtureWindowDays int
	StaleSeasonYear   int
}

// Syncer orchestrates bulk and fallback synchronization against the provider
type Syncer struct {
	provider Provider
	store    Store
	cache    SeasonCache // optional
	gen      Generator   // optional
	cfg      Config
	now      func() time.Time
}

// New creates a syncer. cache and gen may be nil.
func New(provider Provider, store Store, cache SeasonCache, gen Generator, cfg Config) *Syncer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FallbackBatchSize <= 0 {
		cfg.FallbackBatchSize = 10
	}
	if cfg.FixtureWindowDays <= 0 {
		cfg.FixtureWindowDays = 7
	}

	return &Syncer{
		provider: provider,
		store:    store,
		cache:    cache,
		gen:      gen,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SyncLeagues fetches the full league catalogue and upserts every entry.
// One provider call covers the whole catalogue; the per-item store writes
// run through the batch orchestrator for uniform accounting.
func (s *Syncer) SyncLeagues(ctx context.Context) (*batch.Ledger, error) {
	items, err := s.provider.FetchLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("league sync failed: %w", err)
	}

	log.Info().Int("count", len(items)).Msg("Leagues fetched")

	ledger, err := batch.Run(ctx, items, s.cfg.BatchSize, 0, func(ctx context.Context, item models.LeagueItem) (batch.Result, error) {
		if err := item.Validate(); err != nil {
			log.Debug().Err(err).Msg("Skipping malformed league item")
			return batch.Result{Status: batch.StatusSkipped}, nil
		}

		league := item.ToLeague()
		created, err := s.store.UpsertLeague(ctx, league)
		if err != nil {
			return batch.Result{}, fmt.Errorf("failed to save league %d: %w", league.LeagueID, err)
		}

		s.rememberSeasons(ctx, league.LeagueID, league.Seasons)

		status := batch.StatusUpdated
		if created {
			status = batch.StatusCreated
		}
		return batch.Result{Status: status, ID: int64(league.LeagueID)}, nil
	})
	if err != nil {
		return ledger, err
	}

	log.Info().
		Int("created", ledger.Created).
		Int("updated", ledger.Updated).
		Int("skipped", ledger.Skipped).
		Int("errored", ledger.Errored).
		Msg("League sync complete")

	return ledger, nil
}

// FixtureSyncResult summarizes one fixture synchronization run
type FixtureSyncResult struct {
	Created    int
	Updated    int
	Skipped    int
	Errored    int
	Fallback   int     // fixtures recovered via the per-item path
	FixtureIDs []int64 // every fixture touched in this run
}

// SyncFixturesForLeagues obtains the current fixture set for the given
// leagues as cheaply as possible: one bulk query per league against its
// season candidates, then a per-fixture fallback for tracked fixtures the
// bulk responses did not cover. windowDays <= 0 falls back to the
// configured default.
func (s *Syncer) SyncFixturesForLeagues(ctx context.Context, leagueIDs []int, windowDays int) (*FixtureSyncResult, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.FixtureWindowDays
	}

	now := s.now()
	from := now.AddDate(0, 0, -1)
	to := now.AddDate(0, 0, windowDays)

	// Bulk path: accumulate across seasons and leagues, deduplicated by
	// fixture ID (last write wins; fixture payloads are idempotent across
	// seasons).
	recovered := make(map[int64]models.FixtureItem)
	for _, leagueID := range leagueIDs {
		items, err := s.bulkFetchLeague(ctx, leagueID, from, to)
		if err != nil {
			log.Error().Err(err).Int("league_id", leagueID).Msg("Bulk fixture fetch failed for league")
			continue
		}
		for _, item := range items {
			if item.Fixture.ID == 0 {
				continue
			}
			recovered[item.Fixture.ID] = item
		}
	}

	log.Info().
		Int("leagues", len(leagueIDs)).
		Int("fixtures", len(recovered)).
		Msg("Bulk fixture fetch complete")

	items := make([]models.FixtureItem, 0, len(recovered))
	for _, item := range recovered {
		items = append(items, item)
	}

	ledger, err := batch.Run(ctx, items, s.cfg.BatchSize, 0, s.upsertFixtureItem)
	if err != nil {
		return nil, fmt.Errorf("fixture upsert failed: %w", err)
	}

	// Fallback path: tracked fixtures the bulk responses missed. Provider
	// season and date filters are imperfect; a fixture can be absent from
	// every bulk response and still belong to the tracked set.
	tracked, err := s.store.TrackedFixtureIDs(ctx, leagueIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked fixtures: %w", err)
	}

	var missing []int64
	for _, id := range tracked {
		if _, ok := recovered[id]; !ok {
			missing = append(missing, id)
		}
	}

	fallbackCount := 0
	if len(missing) > 0 {
		log.Info().Int("count", len(missing)).Msg("Tracked fixtures missing from bulk responses, using fallback path")

		_, fbLedger, err := s.FetchByIdentifiers(ctx, missing)
		if err != nil {
			log.Error().Err(err).Msg("Fallback fixture fetch failed")
		}
		if fbLedger != nil {
			fallbackCount = fbLedger.Created + fbLedger.Updated
			ledger.Merge(fbLedger)
		}
	}

	result := &FixtureSyncResult{
		Created:    ledger.Created,
		Updated:    ledger.Updated,
		Skipped:    ledger.Skipped,
		Errored:    ledger.Errored,
		Fallback:   fallbackCount,
		FixtureIDs: ledger.ProcessedIDs,
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("errored", result.Errored).
		Int("fallback", result.Fallback).
		Msg("Fixture sync complete")

	// Predictions are derived from whatever this run touched. Generation
	// failures never fail the sync.
	if s.gen != nil && len(result.FixtureIDs) > 0 {
		if err := s.gen.Generate(ctx, result.FixtureIDs); err != nil {
			log.Error().Err(err).Msg("Prediction generation failed")
		}
	}

	return result, nil
}

// bulkFetchLeague tries the league's season candidates in priority order and
// returns the first non-empty bulk response.
func (s *Syncer) bulkFetchLeague(ctx context.Context, leagueID int, from, to time.Time) ([]models.FixtureItem, error) {
	candidates := s.seasonCandidatesForLeague(ctx, leagueID)

	var lastErr error
	for _, season := range candidates {
		items, err := s.provider.FetchFixtures(ctx, client.FixtureQuery{
			League: leagueID,
			Season: season,
			From:   from.Format("2006-01-02"),
			To:     to.Format("2006-01-02"),
		})
		if err != nil {
			lastErr = err
			log.Warn().Err(err).
				Int("league_id", leagueID).
				Int("season", season).
				Msg("Bulk fixture query failed, trying next season candidate")
			continue
		}
		if len(items) > 0 {
			log.Debug().
				Int("league_id", leagueID).
				Int("season", season).
				Int("fixtures", len(items)).
				Msg("Season candidate yielded fixtures")
			s.rememberSeasons(ctx, leagueID, []int{season})
			return items, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// seasonCandidatesForLeague assembles the candidate list from the stored
// league row plus the season-history cache.
func (s *Syncer) seasonCandidatesForLeague(ctx context.Context, leagueID int) []int {
	var stored int
	var history []int

	if league, err := s.store.LeagueByLeagueID(ctx, leagueID); err == nil && league != nil {
		if league.CurrentSeason.Valid {
			stored = int(league.CurrentSeason.Int32)
		}
		// Most recent seasons first
		for i := len(league.Seasons) - 1; i >= 0; i-- {
			history = append(history, league.Seasons[i])
		}
	} else if err != nil {
		log.Debug().Err(err).Int("league_id", leagueID).Msg("League not in store, relying on season heuristic")
	}

	if s.cache != nil {
		if cached, err := s.cache.Seasons(ctx, leagueID); err == nil {
			history = append(history, cached...)
		}
	}

	return SeasonCandidates(stored, history, s.now(), s.cfg.StaleSeasonYear)
}

// FetchByIdentifiers fetches fixtures one by one through the batch
// orchestrator and upserts them. This is the quota-expensive path; batches
// are small and paused.
func (s *Syncer) FetchByIdentifiers(ctx context.Context, fixtureIDs []int64) ([]*models.Match, *batch.Ledger, error) {
	var matches []*models.Match
	var matchesMu sync.Mutex

	ledger, err := batch.Run(ctx, fixtureIDs, s.cfg.FallbackBatchSize, s.cfg.InterBatchDelay, func(ctx context.Context, fixtureID int64) (batch.Result, error) {
		item, err := s.provider.FetchFixtureByID(ctx, fixtureID)
		if err != nil {
			return batch.Result{}, err
		}
		if item == nil {
			log.Debug().Int64("fixture_id", fixtureID).Msg("Fixture unknown to provider, skipping")
			return batch.Result{Status: batch.StatusSkipped}, nil
		}

		res, err := s.upsertFixtureItem(ctx, *item)
		if err != nil {
			return res, err
		}

		if res.Status == batch.StatusCreated || res.Status == batch.StatusUpdated {
			if match, convErr := item.ToMatch(); convErr == nil {
				matchesMu.Lock()
				matches = append(matches, match)
				matchesMu.Unlock()
			}
		}
		return res, nil
	})

	return matches, ledger, err
}

// SyncTeamsForLeague refreshes the teams participating in one league season
func (s *Syncer) SyncTeamsForLeague(ctx context.Context, leagueID, season int) (*batch.Ledger, error) {
	items, err := s.provider.FetchTeams(ctx, leagueID, season)
	if err != nil {
		return nil, fmt.Errorf("team sync failed for league %d: %w", leagueID, err)
	}

	ledger, err := batch.Run(ctx, items, s.cfg.BatchSize, 0, func(ctx context.Context, item models.TeamItem) (batch.Result, error) {
		if err := item.Validate(); err != nil {
			log.Debug().Err(err).Msg("Skipping malformed team item")
			return batch.Result{Status: batch.StatusSkipped}, nil
		}

		team := item.ToTeam()
		created, err := s.store.UpsertTeam(ctx, team)
		if err != nil {
			return batch.Result{}, fmt.Errorf("failed to save team %d: %w", team.TeamID, err)
		}

		status := batch.StatusUpdated
		if created {
			status = batch.StatusCreated
		}
		return batch.Result{Status: status, ID: int64(team.TeamID)}, nil
	})
	if err != nil {
		return ledger, err
	}

	log.Info().
		Int("league_id", leagueID).
		Int("season", season).
		Int("created", ledger.Created).
		Int("updated", ledger.Updated).
		Msg("Team sync complete")

	return ledger, nil
}

// upsertFixtureItem validates and stores one fixture item
func (s *Syncer) upsertFixtureItem(ctx context.Context, item models.FixtureItem) (batch.Result, error) {
	if err := item.Validate(); err != nil {
		log.Debug().Err(err).Msg("Skipping malformed fixture item")
		return batch.Result{Status: batch.StatusSkipped}, nil
	}

	match, err := item.ToMatch()
	if err != nil {
		log.Debug().Err(err).Msg("Skipping unconvertible fixture item")
		return batch.Result{Status: batch.StatusSkipped}, nil
	}

	created, err := s.store.UpsertMatch(ctx, match)
	if err != nil {
		return batch.Result{}, fmt.Errorf("failed to save fixture %d: %w", match.FixtureID, err)
	}

	status := batch.StatusUpdated
	if created {
		status = batch.StatusCreated
	}
	return batch.Result{Status: status, ID: match.FixtureID}, nil
}

// rememberSeasons records observed seasons in the cache, best-effort
func (s *Syncer) rememberSeasons(ctx context.Context, leagueID int, seasons []int) {
	if s.cache == nil || len(seasons) == 0 {
		return
	}
	if err := s.cache.AddSeasons(ctx, leagueID, seasons); err != nil {
		log.Debug().Err(err).Int("league_id", leagueID).Msg("Failed to cache seasons")
	}
}
