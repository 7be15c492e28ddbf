package journal

import (
	"time"

	"github.com/google/uuid"
)

const dayLayout = "2006-01-02"

// Entry is one sealed journal page. There is at most one per calendar day.
type Entry struct {
	ID        uuid.UUID
	Day       time.Time
	Sealed    []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Opened is an entry together with its decrypted text.
type Opened struct {
	Entry
	Text string
}

// DayOf returns the calendar day of t, in t's own location, as UTC midnight.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return DayOf(day).Format(dayLayout)
}
