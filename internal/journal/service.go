package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"humanjournal/internal/logging"
)

var (
	ErrEntryExists   = errors.New("an entry already exists for this day")
	ErrEntryNotFound = errors.New("no entry for this day")
	ErrEmptyEntry    = errors.New("entry text is empty")
)

// Sealer encrypts and decrypts entry text.
type Sealer interface {
	EnsureKeyExists() error
	EncryptString(s string) ([]byte, error)
	DecryptToString(sealed []byte) (string, error)
}

// Gate decides whether sealed entries may be opened.
type Gate interface {
	CheckAccessAllowed(ctx context.Context) error
}

// Service implements the journal use cases. Writing is always allowed;
// anything that decrypts passes the gate first.
type Service struct {
	repo   Repository
	sealer Sealer
	gate   Gate
	now    func() time.Time
	log    logging.Logger

	// serialises the check-then-store of writers
	mu sync.Mutex
}

type ServiceOption func(*Service)

// WithNow replaces the clock used to decide what "today" is.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithLogger(log logging.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

func NewService(repo Repository, sealer Sealer, gate Gate, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		sealer: sealer,
		gate:   gate,
		now:    time.Now,
		log:    logging.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in local time.
func (s *Service) Today() time.Time {
	return DayOf(s.now())
}

// SaveEntry seals text as the entry for day. A day holds one entry; use
// UpdateEntry to replace it.
func (s *Service) SaveEntry(ctx context.Context, day time.Time, text string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, err := s.repo.Fetch(ctx, day)
	if err != nil {
		return Entry{}, err
	}
	if found {
		return Entry{}, ErrEntryExists
	}
	return s.store(ctx, day, text)
}

// UpdateEntry replaces the text of an existing entry.
func (s *Service) UpdateEntry(ctx context.Context, day time.Time, text string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, err := s.repo.Fetch(ctx, day)
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, ErrEntryNotFound
	}
	return s.store(ctx, day, text)
}

func (s *Service) store(ctx context.Context, day time.Time, text string) (Entry, error) {
	if text == "" {
		return Entry{}, ErrEmptyEntry
	}

	if err := s.sealer.EnsureKeyExists(); err != nil {
		return Entry{}, err
	}

	sealed, err := s.sealer.EncryptString(text)
	if err != nil {
		return Entry{}, err
	}

	e, err := s.repo.Store(ctx, DayOf(day), sealed)
	if err != nil {
		return Entry{}, err
	}

	s.log.Info(ctx, "entry sealed", "day", FormatDay(e.Day), "bytes", len(sealed))
	return e, nil
}

// Entry opens the entry for day.
func (s *Service) Entry(ctx context.Context, day time.Time) (Opened, error) {
	if err := s.gate.CheckAccessAllowed(ctx); err != nil {
		return Opened{}, err
	}

	e, found, err := s.repo.Fetch(ctx, day)
	if err != nil {
		return Opened{}, err
	}
	if !found {
		return Opened{}, ErrEntryNotFound
	}
	return s.open(e)
}

// AllEntries opens every entry, newest first.
func (s *Service) AllEntries(ctx context.Context) ([]Opened, error) {
	if err := s.gate.CheckAccessAllowed(ctx); err != nil {
		return nil, err
	}

	entries, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	opened := make([]Opened, 0, len(entries))
	for _, e := range entries {
		o, err := s.open(e)
		if err != nil {
			return nil, err
		}
		opened = append(opened, o)
	}
	return opened, nil
}

// HasEntryForToday does not decrypt, so it works while the journal is locked.
func (s *Service) HasEntryForToday(ctx context.Context) (bool, error) {
	_, found, err := s.repo.Fetch(ctx, s.Today())
	return found, err
}

func (s *Service) EntryCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) open(e Entry) (Opened, error) {
	text, err := s.sealer.DecryptToString(e.Sealed)
	if err != nil {
		return Opened{}, fmt.Errorf("entry %s: %w", FormatDay(e.Day), err)
	}
	return Opened{Entry: e, Text: text}, nil
}
