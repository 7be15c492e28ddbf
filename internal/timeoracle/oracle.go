// Package timeoracle answers "what time is it?" with a best-effort verified
// time, and detects a local clock that disagrees with the time authorities.
//
// Authorities are queried sequentially in priority order, each bounded by a
// short timeout; the first answer wins. A successful answer is cached
// briefly and extrapolated with the local monotonic interval, so repeated
// calls neither hit the network nor go backwards. Network failures never
// reach callers: VerifiedNow falls back to the local clock and the
// manipulation check fails open.
package timeoracle

import (
	"context"
	"sync"
	"time"

	"humanjournal/internal/logging"
	"humanjournal/internal/timeauth"
)

const (
	DefaultCacheValidity         = 300 * time.Second
	DefaultQueryTimeout          = 5 * time.Second
	DefaultManipulationThreshold = 60 * time.Second
)

// Sample is one authoritative answer and the local instant it was observed.
type Sample struct {
	Value      time.Time
	ObservedAt time.Time
}

// Oracle is safe for concurrent use.
type Oracle struct {
	authorities   []timeauth.Authority
	now           func() time.Time
	cacheValidity time.Duration
	queryTimeout  time.Duration
	threshold     time.Duration
	log           logging.Logger

	mu       sync.RWMutex
	cached   Sample
	hasCache bool
}

type Option func(*Oracle)

// WithClock replaces the local clock.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) { o.now = now }
}

func WithCacheValidity(d time.Duration) Option {
	return func(o *Oracle) { o.cacheValidity = d }
}

func WithQueryTimeout(d time.Duration) Option {
	return func(o *Oracle) { o.queryTimeout = d }
}

func WithManipulationThreshold(d time.Duration) Option {
	return func(o *Oracle) { o.threshold = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *Oracle) { o.log = l }
}

// New creates an oracle over the given authorities, tried in order.
func New(authorities []timeauth.Authority, opts ...Option) *Oracle {
	o := &Oracle{
		authorities:   authorities,
		now:           time.Now,
		cacheValidity: DefaultCacheValidity,
		queryTimeout:  DefaultQueryTimeout,
		threshold:     DefaultManipulationThreshold,
		log:           logging.Nop{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// VerifiedNow returns the best available notion of the current time. It
// never fails: with no cached sample and no reachable authority it returns
// the local clock.
func (o *Oracle) VerifiedNow(ctx context.Context) time.Time {
	localNow := o.now()

	if s, ok := o.validSample(localNow); ok {
		return s.Value.Add(localNow.Sub(s.ObservedAt))
	}

	if s, ok := o.query(ctx); ok {
		o.store(s)
		return s.Value
	}

	o.log.Warn(ctx, "no time authority reachable, using local clock")
	return localNow
}

// IsClockManipulated reports whether the local clock disagrees with a fresh
// authoritative time by more than the threshold. It fails open: when no
// authority answers it returns false.
func (o *Oracle) IsClockManipulated(ctx context.Context) bool {
	return o.CheckClock(ctx).State == Manipulated
}

// CheckClock queries the authorities, bypassing the cache, and compares the
// answer with the local clock. A successful answer also refreshes the cache.
func (o *Oracle) CheckClock(ctx context.Context) ClockStatus {
	s, ok := o.query(ctx)
	if !ok {
		return ClockStatus{State: Unverified}
	}
	o.store(s)

	skew := s.Value.Sub(s.ObservedAt)
	status := ClockStatus{State: Consistent, Skew: skew}
	if abs(skew) > o.threshold {
		status.State = Manipulated
		o.log.Warn(ctx, "local clock disagrees with time authority", "skew", skew.Round(time.Second).String())
	}
	return status
}

// Cached returns the current cached sample, if any.
func (o *Oracle) Cached() (Sample, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cached, o.hasCache
}

// validSample returns the cached sample while it is younger than the
// validity window. A local clock that moved backwards past the observation
// instant also invalidates it.
func (o *Oracle) validSample(localNow time.Time) (Sample, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.hasCache {
		return Sample{}, false
	}
	elapsed := localNow.Sub(o.cached.ObservedAt)
	if elapsed < 0 || elapsed >= o.cacheValidity {
		return Sample{}, false
	}
	return o.cached, true
}

func (o *Oracle) store(s Sample) {
	o.mu.Lock()
	o.cached = s
	o.hasCache = true
	o.mu.Unlock()
}

// query walks the authorities in order and returns the first answer.
func (o *Oracle) query(ctx context.Context) (Sample, bool) {
	for _, a := range o.authorities {
		if ctx.Err() != nil {
			return Sample{}, false
		}

		qctx, cancel := context.WithTimeout(ctx, o.queryTimeout)
		value, err := a.Now(qctx)
		cancel()

		if err != nil {
			o.log.Warn(ctx, "time authority failed", "authority", a.Name(), "error", err)
			continue
		}

		o.log.Debug(ctx, "time authority answered", "authority", a.Name())
		return Sample{Value: value.UTC(), ObservedAt: o.now()}, true
	}
	return Sample{}, false
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
