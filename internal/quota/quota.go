package quota

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// bucket is a token reservoir refilled on a timer. Tokens are consumed one
// per admitted call; each refill tick tops the bucket up to full capacity,
// never beyond it.
type bucket struct {
	capacity int
	tokens   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// newBucket creates a full bucket and starts its refill timer. The first
// refill fires after `first`, every refill after that fires on `interval`.
func newBucket(capacity int, first, interval time.Duration) *bucket {
	b := &bucket{
		capacity: capacity,
		tokens:   make(chan struct{}, capacity),
		done:     make(chan struct{}),
	}
	b.topUp()
	go b.refillLoop(first, interval)
	return b
}

func (b *bucket) refillLoop(first, interval time.Duration) {
	timer := time.NewTimer(first)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Top up to capacity rather than adding a nominal amount.
			// This corrects for drift and discards any stale remainder.
			b.topUp()
			timer.Reset(interval)
		case <-b.done:
			return
		}
	}
}

func (b *bucket) topUp() {
	for {
		select {
		case b.tokens <- struct{}{}:
		default:
			return
		}
	}
}

// take blocks until a token is available or the context is cancelled.
func (b *bucket) take(ctx context.Context) error {
	select {
	case <-b.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *bucket) available() int {
	return len(b.tokens)
}

func (b *bucket) stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// Config holds quota gate settings
type Config struct {
	MinuteCapacity int
	MinuteInterval time.Duration
	DayCapacity    int
	MaxInFlight    int
}

// Gate chains a per-minute bucket and a per-day bucket in front of every
// outbound provider call. The minute bucket is the inner gate: a day token
// is only consumed once the minute bucket has admitted the call, so calls
// queued behind the minute bucket never burn day quota. An in-flight
// semaphore caps concurrent calls independently of token counts.
//
// The day bucket's first refill is anchored to the next UTC midnight; after
// that first firing it re-arms on a fixed 24h cadence.
type Gate struct {
	minute   *bucket
	day      *bucket
	inflight chan struct{}
}

// New creates a quota gate. Zero durations and counts fall back to the
// provider defaults (350/min, 70000/day, 10 concurrent).
func New(cfg Config) *Gate {
	if cfg.MinuteCapacity <= 0 {
		cfg.MinuteCapacity = 350
	}
	if cfg.MinuteInterval <= 0 {
		cfg.MinuteInterval = time.Minute
	}
	if cfg.DayCapacity <= 0 {
		cfg.DayCapacity = 70000
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 10
	}

	firstDayRefill := untilNextUTCMidnight(time.Now())

	log.Info().
		Int("minute_capacity", cfg.MinuteCapacity).
		Dur("minute_interval", cfg.MinuteInterval).
		Int("day_capacity", cfg.DayCapacity).
		Int("max_in_flight", cfg.MaxInFlight).
		Dur("first_day_refill", firstDayRefill).
		Msg("Quota gate initialized")

	return &Gate{
		minute:   newBucket(cfg.MinuteCapacity, cfg.MinuteInterval, cfg.MinuteInterval),
		day:      newBucket(cfg.DayCapacity, firstDayRefill, 24*time.Hour),
		inflight: make(chan struct{}, cfg.MaxInFlight),
	}
}

// Admit blocks until the call may proceed: an in-flight slot is free, the
// minute bucket has a token and the day bucket has a token, acquired in that
// order. The returned permit must be released when the call settles; release
// only frees the in-flight slot, consumed tokens are never returned.
//
// Admit never fails on its own, it only delays; the sole error source is
// context cancellation.
func (g *Gate) Admit(ctx context.Context) (*Permit, error) {
	select {
	case g.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := g.minute.take(ctx); err != nil {
		<-g.inflight
		return nil, err
	}

	if err := g.day.take(ctx); err != nil {
		<-g.inflight
		return nil, err
	}

	return &Permit{gate: g}, nil
}

// MinuteAvailable returns the minute bucket's current token count.
func (g *Gate) MinuteAvailable() int {
	return g.minute.available()
}

// DayAvailable returns the day bucket's current token count.
func (g *Gate) DayAvailable() int {
	return g.day.available()
}

// Stop halts both refill timers. Pending Admit calls are only released
// through their contexts.
func (g *Gate) Stop() {
	g.minute.stop()
	g.day.stop()
}

// Permit represents an admitted call occupying an in-flight slot.
type Permit struct {
	gate *Gate
	once sync.Once
}

// Release frees the in-flight slot. Safe to call more than once.
func (p *Permit) Release() {
	p.once.Do(func() {
		<-p.gate.inflight
	})
}

// untilNextUTCMidnight returns the duration from now to the next UTC
// midnight, which anchors the day bucket's first refill.
func untilNextUTCMidnight(now time.Time) time.Duration {
	utc := now.UTC()
	next := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(utc)
}
