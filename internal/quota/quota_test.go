package quota

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketNeverOverAdmits(t *testing.T) {
	b := newBucket(3, time.Hour, time.Hour)
	defer b.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.take(ctx); err == nil {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(3), admitted, "Should admit exactly the bucket capacity")
	assert.Equal(t, 0, b.available(), "Bucket should be drained")
}

func TestBucketRefillTopsUpToCapacity(t *testing.T) {
	b := newBucket(5, 50*time.Millisecond, time.Hour)
	defer b.stop()

	ctx := context.Background()
	require.NoError(t, b.take(ctx))
	require.NoError(t, b.take(ctx))
	assert.Equal(t, 3, b.available(), "Two tokens should be consumed")

	// After the refill tick the bucket holds exactly its capacity again,
	// regardless of how much the previous interval consumed.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 5, b.available(), "Refill should top up to capacity exactly")
}

func TestBucketRefillNeverExceedsCapacity(t *testing.T) {
	b := newBucket(4, 30*time.Millisecond, 30*time.Millisecond)
	defer b.stop()

	// Let several refill ticks fire without consuming anything.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 4, b.available(), "Unconsumed bucket must stay at capacity")
}

func TestGateAdmitsMinuteCapacityThenWaitsForRefill(t *testing.T) {
	g := New(Config{
		MinuteCapacity: 5,
		MinuteInterval: 150 * time.Millisecond,
		DayCapacity:    1000,
		MaxInFlight:    16,
	})
	defer g.Stop()

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			permit, err := g.Admit(context.Background())
			require.NoError(t, err)
			atomic.AddInt64(&admitted, 1)
			permit.Release()
		}()
	}

	// Exactly the minute capacity proceeds immediately.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(5), atomic.LoadInt64(&admitted), "Only minute capacity should be admitted before refill")

	// The remaining three are admitted on the next refill tick.
	wg.Wait()
	assert.Equal(t, int64(8), atomic.LoadInt64(&admitted), "All requests should be admitted after refill")
}

func TestGateConsumesBothBuckets(t *testing.T) {
	g := New(Config{
		MinuteCapacity: 10,
		MinuteInterval: time.Hour,
		DayCapacity:    10,
		MaxInFlight:    4,
	})
	defer g.Stop()

	permit, err := g.Admit(context.Background())
	require.NoError(t, err)
	defer permit.Release()

	assert.Equal(t, 9, g.MinuteAvailable(), "Minute token should be consumed")
	assert.Equal(t, 9, g.DayAvailable(), "Day token should be consumed")
}

func TestGateInFlightCap(t *testing.T) {
	g := New(Config{
		MinuteCapacity: 100,
		MinuteInterval: time.Hour,
		DayCapacity:    100,
		MaxInFlight:    2,
	})
	defer g.Stop()

	p1, err := g.Admit(context.Background())
	require.NoError(t, err)
	p2, err := g.Admit(context.Background())
	require.NoError(t, err)

	// Third admission blocks on the in-flight slot despite available tokens.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = g.Admit(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "Should block while both slots are held")

	p1.Release()
	p3, err := g.Admit(context.Background())
	require.NoError(t, err, "Released slot should admit a waiting call")

	p2.Release()
	p3.Release()
	p3.Release() // Release is idempotent
}

func TestGateAdmitRespectsContext(t *testing.T) {
	g := New(Config{
		MinuteCapacity: 1,
		MinuteInterval: time.Hour,
		DayCapacity:    1,
		MaxInFlight:    4,
	})
	defer g.Stop()

	permit, err := g.Admit(context.Background())
	require.NoError(t, err)
	defer permit.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Admit(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUntilNextUTCMidnight(t *testing.T) {
	now := time.Date(2025, 8, 14, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, 2*time.Hour+30*time.Minute, untilNextUTCMidnight(now))

	// Anchored to UTC even when the local time is in another zone.
	loc := time.FixedZone("UTC+5", 5*3600)
	assert.Equal(t, 2*time.Hour+30*time.Minute, untilNextUTCMidnight(now.In(loc)))
}
