// Package secretstore holds the installation's secrets: the symmetric
// encryption key and the unlock-date commitment.
//
// Every backend must keep secrets outside the journal's own data directory,
// private to the current user and device, and must implement Put as a single
// atomic no-overwrite write. The time lock relies on that last property to
// guarantee the commitment is written at most once.
package secretstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when no secret exists under the name.
	ErrNotFound = errors.New("secret not found")

	// ErrAlreadyExists is returned by Put when a secret already exists under the name.
	ErrAlreadyExists = errors.New("secret already exists")

	// ErrInvalidName is returned for names that cannot be stored safely.
	ErrInvalidName = errors.New("invalid secret name")
)

// Store is a secure key/value capability. All methods are synchronous and
// atomic with respect to each other.
type Store interface {
	// Put stores data under name. It never overwrites: if name exists,
	// Put fails with ErrAlreadyExists and leaves the stored value untouched.
	Put(name string, data []byte) error

	// Get returns the value under name, or ErrNotFound.
	Get(name string) ([]byte, error)

	// Lookup reports presence explicitly instead of through ErrNotFound.
	Lookup(name string) (Lookup, error)

	// Delete removes name. Removing an absent name succeeds.
	Delete(name string) error

	// Exists reports whether name is present.
	Exists(name string) (bool, error)
}

// Lookup is the tagged result of reading an optional secret: either
// Found with its Value, or absent.
type Lookup struct {
	Found bool
	Value []byte
}

// Found wraps a present value.
func Found(v []byte) Lookup { return Lookup{Found: true, Value: v} }

// Absent is the result for a missing secret.
func Absent() Lookup { return Lookup{} }

// StatusError reports an unexpected backend failure. It names the operation
// and secret but never carries secret data.
type StatusError struct {
	Op   string
	Name string
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("secret store %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// lookupVia implements Lookup on top of Get for backends that report absence
// through ErrNotFound.
func lookupVia(s Store, name string) (Lookup, error) {
	v, err := s.Get(name)
	if errors.Is(err, ErrNotFound) {
		return Absent(), nil
	}
	if err != nil {
		return Lookup{}, err
	}
	return Found(v), nil
}

// existsVia implements Exists on top of Lookup.
func existsVia(s Store, name string) (bool, error) {
	l, err := s.Lookup(name)
	if err != nil {
		return false, err
	}
	return l.Found, nil
}
