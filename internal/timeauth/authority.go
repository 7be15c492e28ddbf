package timeauth

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Authority is an external source of truth for the current time.
//
// The oracle depends only on this interface, never on provider-specific
// types. Implementations must honour ctx cancellation; the oracle bounds
// every call with its own per-authority timeout.
type Authority interface {
	// Name identifies the authority in logs.
	Name() string

	// Now asks the authority what time it is.
	Now(ctx context.Context) (time.Time, error)
}

// HTTPDoer is an interface for making HTTP requests.
// This allows injecting mock HTTP clients for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ErrNoTimestamp is returned when an authority answered without a usable time.
var ErrNoTimestamp = errors.New("time authority response carried no timestamp")
