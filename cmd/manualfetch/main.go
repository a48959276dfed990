// Command manualfetch triggers a single synchronization job from the command
// line. It runs the same code paths as the scheduled jobs, including quota
// gating and execution tracking, so a manual run is safe alongside the worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/client"
	"github.com/imi1563/Goal-Backend-sub001/internal/config"
	"github.com/imi1563/Goal-Backend-sub001/internal/jobs"
	"github.com/imi1563/Goal-Backend-sub001/internal/quota"
	"github.com/imi1563/Goal-Backend-sub001/internal/repository"
	"github.com/imi1563/Goal-Backend-sub001/internal/syncer"
)

func main() {
	job := flag.String("job", "fixtures", "job to run: leagues, fixtures, teams, or ids")
	leaguesFlag := flag.String("leagues", "", "comma-separated league IDs (default: configured tracked leagues)")
	season := flag.Int("season", 0, "season year for the teams job")
	idsFlag := flag.String("ids", "", "comma-separated fixture IDs for the ids job")
	flag.Parse()

	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     fmt.Sprintf("%d", cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Validating service health...")
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	gate := quota.New(quota.Config{
		MinuteCapacity: cfg.MinuteQuota,
		MinuteInterval: cfg.MinuteQuotaInterval,
		DayCapacity:    cfg.DayQuota,
		MaxInFlight:    cfg.MaxConcurrentCalls,
	})
	defer gate.Stop()

	apiClient := client.NewClient(client.Options{
		BaseURL:           cfg.APIFootballBaseURL,
		APIKey:            cfg.APIFootballKey,
		Timeout:           cfg.APIFootballTimeout,
		MaxRetries:        cfg.RetryAttempts,
		MaxRateLimitWaits: cfg.RateLimitWaits,
	}, gate)

	sync := syncer.New(apiClient, db, nil, nil, syncer.Config{
		BatchSize:         cfg.BatchSize,
		FallbackBatchSize: cfg.FallbackBatchSize,
		InterBatchDelay:   cfg.InterBatchDelay,
		FixtureWindowDays: cfg.FixtureWindowDays,
		StaleSeasonYear:   cfg.StaleSeasonYear,
	})

	runner := jobs.NewRunner(db.Executions, cfg.JobTimeout, 0)

	leagues := cfg.TrackedLeagues
	if *leaguesFlag != "" {
		leagues, err = parseIntList(*leaguesFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -leagues value")
		}
	}

	switch *job {
	case "leagues":
		runJob(ctx, runner, "manual-league-sync", func(ctx context.Context) (any, error) {
			return sync.SyncLeagues(ctx)
		})

	case "fixtures":
		runJob(ctx, runner, "manual-fixture-sync", func(ctx context.Context) (any, error) {
			return sync.SyncFixturesForLeagues(ctx, leagues, cfg.FixtureWindowDays)
		})

	case "teams":
		if *season == 0 {
			log.Fatal().Msg("Teams job requires -season")
		}
		runJob(ctx, runner, "manual-team-sync", func(ctx context.Context) (any, error) {
			totals := map[string]int{}
			for _, leagueID := range leagues {
				ledger, err := sync.SyncTeamsForLeague(ctx, leagueID, *season)
				if err != nil {
					return nil, err
				}
				totals["created"] += ledger.Created
				totals["updated"] += ledger.Updated
				totals["skipped"] += ledger.Skipped
			}
			return totals, nil
		})

	case "ids":
		if *idsFlag == "" {
			log.Fatal().Msg("Ids job requires -ids")
		}
		ids, err := parseInt64List(*idsFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -ids value")
		}
		runJob(ctx, runner, "manual-fixture-recovery", func(ctx context.Context) (any, error) {
			_, ledger, err := sync.FetchByIdentifiers(ctx, ids)
			if err != nil {
				return nil, err
			}
			return ledger, nil
		})

	default:
		log.Fatal().Str("job", *job).Msg("Unknown job")
	}
}

func runJob(ctx context.Context, runner *jobs.Runner, name string, job jobs.Job) {
	details, err := runner.Run(ctx, name, job)
	if err != nil {
		log.Fatal().Err(err).Str("job", name).Msg("Job failed")
	}
	log.Info().Str("job", name).Interface("result", details).Msg("Job complete")
}

func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInt64List(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}
