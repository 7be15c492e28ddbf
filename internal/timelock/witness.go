package timelock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"humanjournal/internal/timeauth"
)

// Sealed is a payload time-locked to a beacon round.
type Sealed struct {
	Round      uint64 `json:"round"`
	Ciphertext string `json:"ciphertext"`
}

// Witness time-locks a copy of the commitment to an external beacon, so
// the commitment can later be checked against something no local clock
// controls.
type Witness interface {
	Seal(ctx context.Context, at time.Time, payload []byte) (Sealed, error)
	// Open returns ErrWitnessSealed while the round is still in the future.
	Open(ctx context.Context, s Sealed) ([]byte, error)
}

// DrandWitness locks witnesses to the drand round at the unlock instant.
type DrandWitness struct {
	Beacon *timeauth.DrandAuthority
}

func NewDrandWitness(beacon *timeauth.DrandAuthority) *DrandWitness {
	return &DrandWitness{Beacon: beacon}
}

func (w *DrandWitness) Seal(ctx context.Context, at time.Time, payload []byte) (Sealed, error) {
	round, err := w.Beacon.RoundAt(ctx, at)
	if err != nil {
		return Sealed{}, err
	}

	ct, err := w.Beacon.TimeLockEncrypt(payload, round)
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{Round: round, Ciphertext: ct}, nil
}

func (w *DrandWitness) Open(ctx context.Context, s Sealed) ([]byte, error) {
	latest, err := w.Beacon.LatestRound(ctx)
	if err != nil {
		return nil, err
	}
	if latest < s.Round {
		return nil, ErrWitnessSealed
	}
	return w.Beacon.TimeLockDecrypt(s.Ciphertext)
}

// storeWitness is best effort: the commitment stands whatever happens here.
func (l *Lock) storeWitness(ctx context.Context, at time.Time, payload []byte) {
	sealed, err := l.witness.Seal(ctx, at, payload)
	if err != nil {
		l.log.Warn(ctx, "beacon witness not created", "error", err)
		return
	}

	data, err := json.Marshal(sealed)
	if err != nil {
		l.log.Warn(ctx, "beacon witness not encoded", "error", err)
		return
	}

	if err := l.store.Put(WitnessKey, data); err != nil {
		l.log.Warn(ctx, "beacon witness not stored", "error", err)
		return
	}
	l.log.Debug(ctx, "beacon witness stored", "round", sealed.Round)
}

// Witness returns the stored beacon witness.
func (l *Lock) Witness() (Sealed, error) {
	res, err := l.store.Lookup(WitnessKey)
	if err != nil {
		return Sealed{}, fmt.Errorf("read witness: %w", err)
	}
	if !res.Found {
		return Sealed{}, ErrNoWitness
	}

	var s Sealed
	if err := json.Unmarshal(res.Value, &s); err != nil {
		return Sealed{}, fmt.Errorf("decode witness: %w", err)
	}
	return s, nil
}

// WitnessOpened reports whether the beacon has released the witness and,
// if so, that it matches the stored commitment. It never gates access.
func (l *Lock) WitnessOpened(ctx context.Context) (bool, error) {
	if l.witness == nil {
		return false, ErrNoWitness
	}

	s, err := l.Witness()
	if err != nil {
		return false, err
	}

	opened, err := l.witness.Open(ctx, s)
	if errors.Is(err, ErrWitnessSealed) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open witness: %w", err)
	}

	res, err := l.store.Lookup(UnlockDateKey)
	if err != nil {
		return false, fmt.Errorf("read unlock date: %w", err)
	}
	if !res.Found || !bytes.Equal(opened, res.Value) {
		return false, ErrWitnessMismatch
	}
	return true, nil
}
