package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/cache"
	"github.com/imi1563/Goal-Backend-sub001/internal/client"
	"github.com/imi1563/Goal-Backend-sub001/internal/config"
	"github.com/imi1563/Goal-Backend-sub001/internal/jobs"
	"github.com/imi1563/Goal-Backend-sub001/internal/metrics"
	"github.com/imi1563/Goal-Backend-sub001/internal/predict"
	"github.com/imi1563/Goal-Backend-sub001/internal/quota"
	"github.com/imi1563/Goal-Backend-sub001/internal/repository"
	"github.com/imi1563/Goal-Backend-sub001/internal/scheduler"
	"github.com/imi1563/Goal-Backend-sub001/internal/syncer"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting Goal Backend Sync Worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Ints("leagues", cfg.TrackedLeagues).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Quota gate shared by every provider call in the process
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
	log.Info().Msg("API-Football client initialized")

	dbConfig := repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}

	db, err := repository.NewDatabase(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Season cache is optional; sync degrades to provider probing without it
	var seasonCache syncer.SeasonCache
	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without season cache")
	} else {
		defer redisCache.Close()
		seasonCache = redisCache
		log.Info().Msg("Redis season cache connected")
	}

	engine := predict.NewEngine(apiClient, db)

	sync := syncer.New(apiClient, db, seasonCache, engine, syncer.Config{
		BatchSize:         cfg.BatchSize,
		FallbackBatchSize: cfg.FallbackBatchSize,
		InterBatchDelay:   cfg.InterBatchDelay,
		FixtureWindowDays: cfg.FixtureWindowDays,
		StaleSeasonYear:   cfg.StaleSeasonYear,
	})

	runner := jobs.NewRunner(db.Executions, cfg.JobTimeout, cfg.JobRetries)

	if cfg.EnableMetrics {
		go startMetricsServer(db, strconv.Itoa(cfg.MetricsPort))

		startTime := time.Now()
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	sched := scheduler.NewScheduler(cfg, sync, runner, db)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial data sync...")
		if err := runInitialSync(ctx, sched); err != nil {
			log.Error().Err(err).Msg("Initial sync failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial sync completed successfully")
		}
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// runInitialSync brings leagues, teams and the fixture window up to date on
// startup so the first scheduled runs start from warm data
func runInitialSync(ctx context.Context, sched *scheduler.Scheduler) error {
	log.Info().Msg("Refreshing leagues and teams...")
	if err := sched.RefreshStaticData(ctx); err != nil {
		return fmt.Errorf("static data refresh: %w", err)
	}

	log.Info().Msg("Synchronizing fixture window...")
	if err := sched.SyncFixtures(ctx); err != nil {
		return fmt.Errorf("fixture sync: %w", err)
	}

	log.Info().Msg("Initial sync complete")
	return nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(db *repository.Database, port string) {
	http.Handle("/metrics", promhttp.Handler())

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
