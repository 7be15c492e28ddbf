package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"humanjournal/internal/journal/migrations"
)

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// RunMigrations brings the schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	goose.SetLogger(goose.NopLogger())
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository wraps an already migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteRepository(db), nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Store(ctx context.Context, day time.Time, sealed []byte) (Entry, error) {
	now := r.now().UTC().Format(time.RFC3339Nano)
	query := `INSERT INTO entries (id, day, sealed, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(day) DO UPDATE SET sealed = excluded.sealed,
				updated_at = excluded.updated_at
			RETURNING id, day, sealed, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), FormatDay(day), sealed, now, now)
	e, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) Fetch(ctx context.Context, day time.Time) (Entry, bool, error) {
	query := `SELECT id, day, sealed, created_at, updated_at FROM entries WHERE day = ?`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, FormatDay(day)))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, true, nil
}

func (r *SQLiteRepository) FetchAll(ctx context.Context) ([]Entry, error) {
	query := `SELECT id, day, sealed, created_at, updated_at FROM entries ORDER BY day DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e                         Entry
		id, day, created, updated string
	)
	if err := s.Scan(&id, &day, &e.Sealed, &created, &updated); err != nil {
		return Entry{}, err
	}

	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return Entry{}, fmt.Errorf("bad entry id %q: %w", id, err)
	}
	if e.Day, err = ParseDay(day); err != nil {
		return Entry{}, fmt.Errorf("bad entry day %q: %w", day, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Entry{}, fmt.Errorf("bad created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return Entry{}, fmt.Errorf("bad updated_at: %w", err)
	}
	return e, nil
}
