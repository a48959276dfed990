package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// LogTracker reports job executions to the structured log
type LogTracker struct{}

func (LogTracker) Start(_ context.Context, jobName string) (Execution, error) {
	log.Info().Str("job", jobName).Msg("Job started")
	return &logExecution{job: jobName, started: time.Now()}, nil
}

type logExecution struct {
	job     string
	started time.Time
}

func (e *logExecution) Success(_ context.Context, details any) error {
	log.Info().
		Str("job", e.job).
		Dur("duration", time.Since(e.started)).
		Interface("details", details).
		Msg("Job succeeded")
	return nil
}

func (e *logExecution) Fail(_ context.Context, jobErr error) error {
	log.Error().
		Str("job", e.job).
		Dur("duration", time.Since(e.started)).
		Err(jobErr).
		Msg("Job failed")
	return nil
}
