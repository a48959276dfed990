// Package scheduler drives the recurring synchronization jobs: a nightly
// refresh of leagues and teams, and a periodic sweep of the fixture window.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/config"
	"github.com/imi1563/Goal-Backend-sub001/internal/jobs"
	"github.com/imi1563/Goal-Backend-sub001/internal/models"
	"github.com/imi1563/Goal-Backend-sub001/internal/syncer"
)

// seasonSource resolves stored league rows when picking a season for the
// team refresh. May be nil.
type seasonSource interface {
	LeagueByLeagueID(ctx context.Context, leagueID int) (*models.League, error)
}

// Scheduler manages the background sync jobs
type Scheduler struct {
	cfg      *config.Config
	sync     *syncer.Syncer
	runner   *jobs.Runner
	store    seasonSource
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, sync *syncer.Syncer, runner *jobs.Runner, store seasonSource) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		sync:     sync,
		runner:   runner,
		store:    store,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.LeagueRefreshCron, func() {
		log.Info().Msg("Running nightly refresh...")
		if err := s.RefreshStaticData(ctx); err != nil {
			log.Error().Err(err).Msg("Nightly refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.LeagueRefreshCron).
		Msg("Nightly refresh scheduled")

	interval := time.Duration(s.cfg.FixturePollInterval) * time.Second
	s.ticker = time.NewTicker(interval)
	log.Info().
		Dur("interval", interval).
		Msg("Fixture window polling started")

	go s.pollFixtureWindow(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// pollFixtureWindow periodically resynchronizes the tracked fixture window
func (s *Scheduler) pollFixtureWindow(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping fixture polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping fixture polling")
			return
		case <-s.ticker.C:
			if err := s.SyncFixtures(ctx); err != nil {
				log.Error().Err(err).Msg("Fixture window sync failed")
			}
		}
	}
}

// SyncFixtures runs one fixture window sweep under the job runner
func (s *Scheduler) SyncFixtures(ctx context.Context) error {
	_, err := s.runner.Run(ctx, "fixture-sync", func(ctx context.Context) (any, error) {
		result, err := s.sync.SyncFixturesForLeagues(ctx, s.cfg.TrackedLeagues, s.cfg.FixtureWindowDays)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	return err
}

// RefreshStaticData refreshes leagues and the tracked leagues' teams under
// the job runner
func (s *Scheduler) RefreshStaticData(ctx context.Context) error {
	_, err := s.runner.Run(ctx, "league-refresh", func(ctx context.Context) (any, error) {
		ledger, err := s.sync.SyncLeagues(ctx)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	})
	if err != nil {
		return err
	}

	_, err = s.runner.Run(ctx, "team-refresh", func(ctx context.Context) (any, error) {
		return s.refreshTeams(ctx)
	})
	return err
}

// refreshTeams upserts each tracked league's team roster for its current
// season. Leagues missing from the store are skipped; the nightly league
// refresh will fill them in.
func (s *Scheduler) refreshTeams(ctx context.Context) (map[string]int, error) {
	totals := map[string]int{"created": 0, "updated": 0, "skipped": 0, "errored": 0}

	for _, leagueID := range s.cfg.TrackedLeagues {
		season := s.seasonForLeague(ctx, leagueID)

		ledger, err := s.sync.SyncTeamsForLeague(ctx, leagueID, season)
		if err != nil {
			log.Error().Err(err).Int("league_id", leagueID).Msg("Team refresh failed for league")
			totals["errored"]++
			continue
		}

		totals["created"] += ledger.Created
		totals["updated"] += ledger.Updated
		totals["skipped"] += ledger.Skipped
		totals["errored"] += ledger.Errored
	}

	return totals, nil
}

func (s *Scheduler) seasonForLeague(ctx context.Context, leagueID int) int {
	if s.store != nil {
		if stored, err := s.store.LeagueByLeagueID(ctx, leagueID); err == nil && stored.CurrentSeason.Valid {
			return int(stored.CurrentSeason.Int32)
		}
	}
	return syncer.AutoSeason(time.Now().UTC())
}
