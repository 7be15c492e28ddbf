package journal

import (
	"context"
	"time"
)

// Repository persists sealed entries keyed by calendar day.
type Repository interface {
	// Store inserts the entry for day, or replaces the sealed payload of the
	// existing one. ID and CreatedAt survive a replace.
	Store(ctx context.Context, day time.Time, sealed []byte) (Entry, error)

	// Fetch returns the entry for day and whether it exists.
	Fetch(ctx context.Context, day time.Time) (Entry, bool, error)

	// FetchAll returns every entry, newest day first.
	FetchAll(ctx context.Context) ([]Entry, error)

	Count(ctx context.Context) (int, error)
}
