// Package reminder fires a daily event at a chosen local time of day.
//
// Consumers receive events through subscriptions. All events are delivered
// from a single dispatcher goroutine, and a subscription stops receiving
// once cancelled.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"humanjournal/internal/logging"
)

var (
	ErrInvalidTime = errors.New("reminder time must be between 00:00 and 23:59")
	ErrClosed      = errors.New("scheduler is closed")
)

type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Validate rejects anything that is not a wall-clock time.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return ErrInvalidTime
	}
	return nil
}

// Next returns the first instant strictly after now, in now's location,
// that falls on t.
func (t TimeOfDay) Next(now time.Time) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, t.Hour, t.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = time.Date(y, m, d+1, t.Hour, t.Minute, 0, 0, now.Location())
	}
	return at
}

// Event is one reminder firing.
type Event struct {
	At time.Time
}

// Stopper is the part of *time.Timer the scheduler uses.
type Stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) Stopper

type Scheduler struct {
	now   func() time.Time
	after afterFunc
	log   logging.Logger

	mu        sync.Mutex
	scheduled *TimeOfDay
	timer     Stopper
	gen       uint64
	subs      map[*Subscription]struct{}
	closed    bool

	fires chan Event
	done  chan struct{}
	wg    sync.WaitGroup
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithAfterFunc replaces time.AfterFunc.
func WithAfterFunc(f func(d time.Duration, fn func()) Stopper) Option {
	return func(s *Scheduler) { s.after = f }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// NewScheduler starts the dispatcher. Close stops it.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		now: time.Now,
		after: func(d time.Duration, f func()) Stopper {
			return time.AfterFunc(d, f)
		},
		log:   logging.Nop{},
		subs:  make(map[*Subscription]struct{}),
		fires: make(chan Event, 1),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.dispatch()
	return s
}

// Schedule replaces any pending reminder with a daily one at hour:minute.
func (s *Scheduler) Schedule(hour, minute int) error {
	tod := TimeOfDay{Hour: hour, Minute: minute}
	if err := tod.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.stopLocked()
	s.scheduled = &tod
	s.armLocked(time.Time{})
	return nil
}

// Cancel removes the pending reminder. It is a no-op when none is set.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.scheduled = nil
}

// Scheduled reports the current daily reminder time.
func (s *Scheduler) Scheduled() (TimeOfDay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled == nil {
		return TimeOfDay{}, false
	}
	return *s.scheduled, true
}

// Subscribe registers for reminder events. A slow subscriber misses events
// rather than blocking others.
func (s *Scheduler) Subscribe() *Subscription {
	sub := &Subscription{
		s: s,
		c: make(chan Event, 1),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(sub.c)
		sub.cancelled = true
		return sub
	}
	s.subs[sub] = struct{}{}
	return sub
}

// Close cancels the reminder, ends every subscription and stops the
// dispatcher.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopLocked()
	s.scheduled = nil
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	for sub := range s.subs {
		sub.closeLocked()
	}
	s.mu.Unlock()
}

// Run blocks until ctx is done, then closes the scheduler.
func (s *Scheduler) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.done:
	}
	s.Close()
}

// armLocked sets the timer for the first occurrence after both the local
// clock and since.
func (s *Scheduler) armLocked(since time.Time) {
	now := s.now()
	from := now
	if since.After(from) {
		from = since
	}
	at := s.scheduled.Next(from)
	gen := s.gen
	s.timer = s.after(at.Sub(now), func() { s.fire(gen, at) })
	s.log.Debug(context.Background(), "reminder armed", "at", at.Format(time.RFC3339))
}

func (s *Scheduler) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs on the timer goroutine. It hands the event to the dispatcher
// and arms the next day. A timer stopped too late to cancel finds a newer
// generation and does nothing.
func (s *Scheduler) fire(gen uint64, at time.Time) {
	s.mu.Lock()
	if s.closed || s.scheduled == nil || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.armLocked(at)
	s.mu.Unlock()

	select {
	case s.fires <- Event{At: at}:
	case <-s.done:
	}
}

func (s *Scheduler) dispatch() {
	defer s.wg.Done()

	for {
		select {
		case ev := <-s.fires:
			s.broadcast(ev)
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		select {
		case sub.c <- ev:
		default:
			s.log.Debug(context.Background(), "reminder dropped for slow subscriber")
		}
	}
}

// Subscription receives reminder events on C until cancelled.
type Subscription struct {
	s         *Scheduler
	c         chan Event
	cancelled bool
}

// C is closed when the subscription is cancelled or the scheduler closes.
func (sub *Subscription) C() <-chan Event {
	return sub.c
}

// Cancel stops delivery. It is safe to call more than once.
func (sub *Subscription) Cancel() {
	sub.s.mu.Lock()
	defer sub.s.mu.Unlock()
	sub.closeLocked()
}

func (sub *Subscription) closeLocked() {
	if sub.cancelled {
		return
	}
	sub.cancelled = true
	delete(sub.s.subs, sub)
	close(sub.c)
}
