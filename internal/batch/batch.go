// Package batch runs large fetch workloads as fixed-size batches with
// bounded parallelism and inter-batch pauses.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imi1563/Goal-Backend-sub001/internal/metrics"
)

// ErrIntegrity reports that the number of settled items does not match the
// input length. Batches and items must never be silently dropped.
var ErrIntegrity = errors.New("batch item count mismatch")

// Status classifies one item's outcome
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	// StatusSkipped marks a structural reason (missing identifier or
	// field) where no retry would help. Counted apart from errors.
	StatusSkipped Status = "skipped"
)

// Result is what a per-item operation reports on success or skip
type Result struct {
	Status Status
	ID     int64 // provider identifier of the touched item, 0 if none
}

// Ledger aggregates outcomes across all batches of one run
type Ledger struct {
	mu sync.Mutex

	Created int
	Updated int
	Skipped int
	Errored int

	// ProcessedIDs lists identifiers of successfully created or updated
	// items, for downstream steps keyed off newly touched items.
	ProcessedIDs []int64
}

func (l *Ledger) record(res Result, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.Errored++
		metrics.BatchItemsTotal.WithLabelValues("errored").Inc()
		return
	}

	switch res.Status {
	case StatusCreated:
		l.Created++
	case StatusUpdated:
		l.Updated++
	case StatusSkipped:
		l.Skipped++
		metrics.BatchItemsTotal.WithLabelValues(string(StatusSkipped)).Inc()
		return
	default:
		// An op that reports neither status nor error still settled;
		// count it as updated so the integrity invariant holds.
		l.Updated++
	}

	metrics.BatchItemsTotal.WithLabelValues(string(res.Status)).Inc()
	if res.ID != 0 {
		l.ProcessedIDs = append(l.ProcessedIDs, res.ID)
	}
}

// Total returns the number of settled items
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Created + l.Updated + l.Skipped + l.Errored
}

// Merge folds another ledger into this one
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Created += other.Created
	l.Updated += other.Updated
	l.Skipped += other.Skipped
	l.Errored += other.Errored
	l.ProcessedIDs = append(l.ProcessedIDs, other.ProcessedIDs...)
}

// Run partitions items into contiguous batches of size and applies op to
// every item. Within a batch all items are dispatched concurrently; their
// real parallelism is bounded by the quota gate each call passes through.
// Batch N+1 never starts before all of batch N's work settled, and after
// every batch except the last the orchestrator pauses for delay.
//
// A single item's failure never aborts the batch or the run; it is counted
// in the ledger. Run returns the ledger even when it returns an error.
func Run[T any](ctx context.Context, items []T, size int, delay time.Duration, op func(context.Context, T) (Result, error)) (*Ledger, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", size)
	}

	ledger := &Ledger{}

	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return ledger, err
		}

		end := min(start+size, len(items))
		metrics.BatchesTotal.Inc()

		var wg sync.WaitGroup
		for _, item := range items[start:end] {
			wg.Add(1)
			go func(it T) {
				defer wg.Done()
				res, err := op(ctx, it)
				if err != nil {
					log.Warn().Err(err).Msg("Batch item failed")
				}
				ledger.record(res, err)
			}(item)
		}
		wg.Wait()

		log.Debug().
			Int("from", start).
			Int("to", end).
			Int("total", len(items)).
			Msg("Batch settled")

		// Pause between batches to smooth burst load, even when the
		// token buckets would admit faster dispatch.
		if end < len(items) && delay > 0 {
			select {
			case <-ctx.Done():
				return ledger, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if ledger.Total() != len(items) {
		return ledger, fmt.Errorf("%w: processed %d of %d items", ErrIntegrity, ledger.Total(), len(items))
	}

	return ledger, nil
}
