package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func day(s string) time.Time {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStore_InsertThenReplace(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	clock := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	first, err := repo.Store(ctx, day("2025-03-01"), []byte("v1"))
	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(first.ID))
	assert.Equal(t, day("2025-03-01"), first.Day)
	assert.Equal(t, clock, first.CreatedAt)

	clock = clock.Add(time.Hour)
	second, err := repo.Store(ctx, day("2025-03-01"), []byte("v2"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, clock, second.UpdatedAt)
	assert.Equal(t, []byte("v2"), second.Sealed)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFetch(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, found, err := repo.Fetch(ctx, day("2025-01-01"))
	require.NoError(t, err)
	assert.False(t, found)

	stored, err := repo.Store(ctx, day("2025-01-01"), []byte{1, 2, 3})
	require.NoError(t, err)

	// Any instant within the day finds it.
	got, found, err := repo.Fetch(ctx, time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, []byte{1, 2, 3}, got.Sealed)
}

func TestFetch_UsesCallersCalendarDay(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	tokyo := time.FixedZone("JST", 9*60*60)
	// 01:00 on the 2nd in Tokyo is still the 1st in UTC.
	at := time.Date(2025, 1, 2, 1, 0, 0, 0, tokyo)

	_, err := repo.Store(ctx, at, []byte("x"))
	require.NoError(t, err)

	_, found, err := repo.Fetch(ctx, day("2025-01-02"))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFetchAll_NewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, d := range []string{"2025-02-10", "2024-12-31", "2025-03-01", "2025-01-15"} {
		_, err := repo.Store(ctx, day(d), []byte(d))
		require.NoError(t, err)
	}

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	var days []string
	for _, e := range all {
		days = append(days, FormatDay(e.Day))
	}
	assert.Equal(t, []string{"2025-03-01", "2025-02-10", "2025-01-15", "2024-12-31"}, days)
}

func TestFetchAll_Empty(t *testing.T) {
	repo := setupRepo(t)

	all, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ConcurrentSameDay(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Store(ctx, day("2025-05-05"), []byte{byte(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(context.Background(), db))
	require.NoError(t, RunMigrations(context.Background(), db))

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='entries'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "entries", name)
}

func TestOpenSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = repo.Store(ctx, day("2025-04-04"), []byte("kept"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	got, found, err := repo.Fetch(ctx, day("2025-04-04"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("kept"), got.Sealed)
}

func TestDayHelpers(t *testing.T) {
	at := time.Date(2025, 7, 4, 18, 30, 0, 0, time.FixedZone("X", -7*60*60))
	assert.Equal(t, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), DayOf(at))
	assert.Equal(t, "2025-07-04", FormatDay(at))

	_, err := ParseDay("04/07/2025")
	assert.Error(t, err)
}
