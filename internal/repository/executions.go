package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imi1563/Goal-Backend-sub001/internal/jobs"
)

// ExecutionRepository records job executions in the job_executions table.
// It satisfies jobs.Tracker so sync jobs leave an audit trail of their runs.
type ExecutionRepository struct {
	db *Database
}

var _ jobs.Tracker = (*ExecutionRepository)(nil)

// Start records the beginning of a job run
func (r *ExecutionRepository) Start(ctx context.Context, jobName string) (jobs.Execution, error) {
	query := `
		INSERT INTO job_executions (job_name, status, started_at)
		VALUES ($1, 'running', NOW())
		RETURNING id
	`

	var id int64
	if err := r.db.Pool.QueryRow(ctx, query, jobName).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to record job start: %w", err)
	}

	return &execution{repo: r, id: id}, nil
}

type execution struct {
	repo *ExecutionRepository
	id   int64
}

// Success marks the run finished and stores the job's result details as JSON
func (e *execution) Success(ctx context.Context, details any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("null")
	}

	query := `
		UPDATE job_executions
		SET status = 'success', details = $1, finished_at = NOW()
		WHERE id = $2
	`

	if _, err := e.repo.db.Pool.Exec(ctx, query, payload, e.id); err != nil {
		return fmt.Errorf("failed to record job success: %w", err)
	}
	return nil
}

// Fail marks the run finished with the terminal error
func (e *execution) Fail(ctx context.Context, jobErr error) error {
	var message string
	if jobErr != nil {
		message = jobErr.Error()
	}

	query := `
		UPDATE job_executions
		SET status = 'failed', error = $1, finished_at = NOW()
		WHERE id = $2
	`

	if _, err := e.repo.db.Pool.Exec(ctx, query, message, e.id); err != nil {
		return fmt.Errorf("failed to record job failure: %w", err)
	}
	return nil
}
