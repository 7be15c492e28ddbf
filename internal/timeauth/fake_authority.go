package timeauth

import (
	"context"
	"sync"
	"time"
)

// FakeAuthority is a deterministic time authority for testing.
// It allows control over the reported time and failure simulation.
type FakeAuthority struct {
	// AuthorityName is the name returned by Name()
	AuthorityName string

	// NowFunc supplies the reported time. It takes precedence over Time.
	NowFunc func() time.Time

	// Time is reported when NowFunc is nil
	Time time.Time

	// Err simulates query failures
	Err error

	// Delay blocks each query until it elapses or ctx is done
	Delay time.Duration

	mu    sync.Mutex
	calls int
}

func (f *FakeAuthority) Name() string {
	if f.AuthorityName == "" {
		return "fake"
	}
	return f.AuthorityName
}

func (f *FakeAuthority) Now(ctx context.Context) (time.Time, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}

	if f.Err != nil {
		return time.Time{}, f.Err
	}
	if f.NowFunc != nil {
		return f.NowFunc(), nil
	}
	return f.Time, nil
}

// Calls reports how many times Now was invoked.
func (f *FakeAuthority) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
