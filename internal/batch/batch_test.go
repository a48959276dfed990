package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunProcessesEveryItem(t *testing.T) {
	for _, size := range []int{1, 3, 10, 25, 100} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			items := make([]int64, 25)
			for i := range items {
				items[i] = int64(i + 1)
			}

			ledger, err := Run(context.Background(), items, size, 0, func(_ context.Context, id int64) (Result, error) {
				switch {
				case id%5 == 0:
					return Result{}, fmt.Errorf("item %d failed", id)
				case id%7 == 0:
					return Result{Status: StatusSkipped}, nil
				default:
					return Result{Status: StatusCreated, ID: id}, nil
				}
			})
			require.NoError(t, err)

			assert.Equal(t, len(items), ledger.Total(), "Every input item must settle exactly once")
			assert.Equal(t, 5, ledger.Errored)
			assert.Equal(t, 3, ledger.Skipped) // 7, 14, 21
			assert.Equal(t, 17, ledger.Created)
			assert.Len(t, ledger.ProcessedIDs, 17)
		})
	}
}

func TestRunItemFailureDoesNotAbortBatch(t *testing.T) {
	items := []int64{1, 2, 3, 4, 5, 6}

	var processed int64
	ledger, err := Run(context.Background(), items, 2, 0, func(_ context.Context, id int64) (Result, error) {
		atomic.AddInt64(&processed, 1)
		if id == 1 {
			return Result{}, fmt.Errorf("boom")
		}
		return Result{Status: StatusUpdated, ID: id}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(6), processed, "Failure in the first batch must not stop later batches")
	assert.Equal(t, 1, ledger.Errored)
	assert.Equal(t, 5, ledger.Updated)
}

func TestRunBatchBoundariesAndDelay(t *testing.T) {
	items := make([]int, 25)
	delay := 40 * time.Millisecond

	// 25 items at size 10: batches of 10, 10 and 5 with two pauses. Track
	// batch boundaries by watching the concurrent-item high-water mark
	// drain to zero between batches.
	var mu sync.Mutex
	inFlight := 0
	boundaries := 0

	start := time.Now()
	ledger, err := Run(context.Background(), items, 10, delay, func(_ context.Context, _ int) (Result, error) {
		mu.Lock()
		if inFlight == 0 {
			boundaries++
		}
		inFlight++
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return Result{Status: StatusUpdated}, nil
	})
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, 25, ledger.Total())
	assert.Equal(t, 3, boundaries, "Exactly three batch starts expected")
	assert.GreaterOrEqual(t, elapsed, 2*delay, "Two inter-batch pauses expected")
}

func TestRunSettleBarrierBetweenBatches(t *testing.T) {
	var concurrent, maxConcurrent int64

	_, err := Run(context.Background(), make([]int, 30), 10, 0, func(_ context.Context, _ int) (Result, error) {
		cur := atomic.AddInt64(&concurrent, 1)
		for {
			old := atomic.LoadInt64(&maxConcurrent)
			if cur <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&concurrent, -1)
		return Result{Status: StatusUpdated}, nil
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt64(&maxConcurrent), int64(10), "Items of different batches must never overlap")
}

func TestRunEmptyInput(t *testing.T) {
	ledger, err := Run(context.Background(), []int64{}, 10, time.Second, func(_ context.Context, _ int64) (Result, error) {
		return Result{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Total())
}

func TestRunRejectsInvalidBatchSize(t *testing.T) {
	_, err := Run(context.Background(), []int64{1}, 0, 0, func(_ context.Context, _ int64) (Result, error) {
		return Result{}, nil
	})
	assert.Error(t, err)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var processed int64
	_, err := Run(ctx, make([]int, 30), 10, 50*time.Millisecond, func(_ context.Context, _ int) (Result, error) {
		if atomic.AddInt64(&processed, 1) == 10 {
			cancel()
		}
		return Result{Status: StatusUpdated}, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(10), atomic.LoadInt64(&processed), "No further batch should start after cancellation")
}

func TestLedgerMerge(t *testing.T) {
	a := &Ledger{Created: 2, Updated: 1, ProcessedIDs: []int64{1, 2, 3}}
	b := &Ledger{Errored: 1, Skipped: 2, ProcessedIDs: []int64{4}}

	a.Merge(b)
	assert.Equal(t, 2, a.Created)
	assert.Equal(t, 2, a.Skipped)
	assert.Equal(t, 1, a.Errored)
	assert.Equal(t, []int64{1, 2, 3, 4}, a.ProcessedIDs)
	assert.Equal(t, 6, a.Total())
}
