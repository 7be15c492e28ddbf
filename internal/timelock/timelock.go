// Package timelock holds the one-way unlock commitment and decides whether
// the journal may be read.
//
// The commitment is written at most once, with a single no-overwrite write
// to the secret store; there is no in-memory flag and no read before the
// write, so concurrent racers resolve inside the store. Access is granted
// only when the commitment exists, the device clock agrees with the time
// authorities, and the verified time has reached the commitment.
package timelock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"humanjournal/internal/logging"
	"humanjournal/internal/secretstore"
	"humanjournal/internal/timeoracle"
)

const (
	UnlockDateKey = "com.humanjournal.unlockdate"
	WitnessKey    = "com.humanjournal.witness"
)

// Clock is the view of the time oracle a Lock needs.
type Clock interface {
	VerifiedNow(ctx context.Context) time.Time
	CheckClock(ctx context.Context) timeoracle.ClockStatus
}

// Commitment is the stored unlock instant. Found is false when no
// commitment has been made yet.
type Commitment struct {
	Found bool
	At    time.Time
}

type Lock struct {
	store   secretstore.Store
	clock   Clock
	log     logging.Logger
	strict  bool
	witness Witness
}

type Option func(*Lock)

// WithStrictOffline makes CheckAccessAllowed fail with ErrTimeUnverified
// when no time authority answers. The default lets the local clock decide.
func WithStrictOffline(strict bool) Option {
	return func(l *Lock) { l.strict = strict }
}

// WithWitness stores a beacon witness of the commitment alongside it.
func WithWitness(w Witness) Option {
	return func(l *Lock) { l.witness = w }
}

func WithLogger(log logging.Logger) Option {
	return func(l *Lock) { l.log = log }
}

func New(store secretstore.Store, clock Clock, opts ...Option) *Lock {
	l := &Lock{
		store: store,
		clock: clock,
		log:   logging.Nop{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetUnlockDate commits the unlock instant. It succeeds exactly once per
// installation; every later call returns ErrAlreadySet.
func (l *Lock) SetUnlockDate(ctx context.Context, date time.Time) error {
	date = date.UTC()

	payload, err := json.Marshal(date)
	if err != nil {
		return fmt.Errorf("encode unlock date: %w", err)
	}

	if err := l.store.Put(UnlockDateKey, payload); err != nil {
		if errors.Is(err, secretstore.ErrAlreadyExists) {
			return ErrAlreadySet
		}
		return fmt.Errorf("store unlock date: %w", err)
	}

	l.log.Info(ctx, "unlock date committed", "unlock_at", date.Format(time.RFC3339))

	if l.witness != nil {
		l.storeWitness(ctx, date, payload)
	}
	return nil
}

// UnlockDate reads the commitment.
func (l *Lock) UnlockDate() (Commitment, error) {
	res, err := l.store.Lookup(UnlockDateKey)
	if err != nil {
		return Commitment{}, fmt.Errorf("read unlock date: %w", err)
	}
	if !res.Found {
		return Commitment{}, nil
	}

	var at time.Time
	if err := json.Unmarshal(res.Value, &at); err != nil {
		return Commitment{}, fmt.Errorf("decode unlock date: %w", err)
	}
	return Commitment{Found: true, At: at.UTC()}, nil
}

// IsUnlockDateSet reports whether a commitment exists. A store failure
// counts as not set.
func (l *Lock) IsUnlockDateSet() bool {
	ok, err := l.store.Exists(UnlockDateKey)
	return err == nil && ok
}

// CheckAccessAllowed returns nil when the journal may be read. Checks run
// in order: commitment present, clock consistent, unlock time reached.
func (l *Lock) CheckAccessAllowed(ctx context.Context) error {
	c, err := l.UnlockDate()
	if err != nil {
		return err
	}
	if !c.Found {
		return ErrNotSet
	}

	switch l.clock.CheckClock(ctx).State {
	case timeoracle.Manipulated:
		return ErrDateManipulationDetected
	case timeoracle.Unverified:
		if l.strict {
			return ErrTimeUnverified
		}
	}

	if l.clock.VerifiedNow(ctx).Before(c.At) {
		return ErrNotYetUnlocked
	}
	return nil
}

// IsUnlocked reports whether CheckAccessAllowed would succeed.
func (l *Lock) IsUnlocked(ctx context.Context) bool {
	return l.CheckAccessAllowed(ctx) == nil
}

// DaysUntilUnlock returns the whole days left before the unlock instant.
// It is 0 when no commitment exists or the instant has passed.
func (l *Lock) DaysUntilUnlock(ctx context.Context) int {
	c, err := l.UnlockDate()
	if err != nil || !c.Found {
		return 0
	}

	remaining := c.At.Sub(l.clock.VerifiedNow(ctx))
	if remaining <= 0 {
		return 0
	}
	return int(math.Floor(remaining.Hours() / 24))
}
