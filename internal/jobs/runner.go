// Package jobs wraps whole synchronization jobs with execution tracking, a
// job-level timeout and a bounded whole-job retry count.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/metrics"
)

// ErrTimeout reports that a job exceeded its ceiling and was abandoned
var ErrTimeout = errors.New("job timed out")

// Tracker is the external execution-tracking collaborator. Tracking is
// best-effort: its failures are logged and never block a job.
type Tracker interface {
	Start(ctx context.Context, jobName string) (Execution, error)
}

// Execution is one tracked job run
type Execution interface {
	Success(ctx context.Context, details any) error
	Fail(ctx context.Context, jobErr error) error
}

// Job is a whole synchronization job. It is treated as a unit of idempotent
// work that is safe to rerun on failure.
type Job func(ctx context.Context) (any, error)

// Runner executes jobs under a timeout and a bounded retry count
type Runner struct {
	tracker Tracker
	timeout time.Duration
	retries int
}

// NewRunner creates a runner. A nil tracker falls back to the no-op tracker.
func NewRunner(tracker Tracker, timeout time.Duration, retries int) *Runner {
	if tracker == nil {
		tracker = NopTracker{}
	}
	if timeout <= 0 {
		timeout = 3 * time.Hour
	}
	if retries < 0 {
		retries = 0
	}
	return &Runner{tracker: tracker, timeout: timeout, retries: retries}
}

// Run executes the job, retrying the whole job on failure up to the
// configured count. The job's own result or error is returned to the
// trigger; the tracker is notified of the terminal outcome either way.
func (r *Runner) Run(ctx context.Context, name string, job Job) (any, error) {
	start := time.Now()

	exec, err := r.tracker.Start(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("job", name).Msg("Execution tracker unavailable, continuing untracked")
		exec = nopExecution{}
	}

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Str("job", name).
				Int("attempt", attempt+1).
				Msg("Retrying job")
		}

		details, err := r.runOnce(ctx, job)
		if err == nil {
			duration := time.Since(start)
			metrics.JobRunsTotal.WithLabelValues(name, "success").Inc()
			metrics.JobDuration.WithLabelValues(name).Observe(duration.Seconds())

			if terr := exec.Success(ctx, details); terr != nil {
				log.Warn().Err(terr).Str("job", name).Msg("Failed to report job success to tracker")
			}

			log.Info().
				Str("job", name).
				Dur("duration", duration).
				Msg("Job complete")
			return details, nil
		}

		lastErr = err
		log.Error().
			Err(err).
			Str("job", name).
			Int("attempt", attempt+1).
			Msg("Job attempt failed")
	}

	metrics.JobRunsTotal.WithLabelValues(name, "failed").Inc()
	metrics.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if terr := exec.Fail(ctx, lastErr); terr != nil {
		log.Warn().Err(terr).Str("job", name).Msg("Failed to report job failure to tracker")
	}

	return nil, fmt.Errorf("job %s failed after %d attempts: %w", name, r.retries+1, lastErr)
}

// runOnce executes one attempt under the job timeout. A timed-out job is
// abandoned, not cancelled: its goroutine may run to completion and the
// result is discarded.
func (r *Runner) runOnce(ctx context.Context, job Job) (any, error) {
	type outcome struct {
		details any
		err     error
	}

	done := make(chan outcome, 1)
	go func() {
		details, err := job(ctx)
		done <- outcome{details: details, err: err}
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.details, out.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
