package timelock

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humanjournal/internal/secretstore"
	"humanjournal/internal/testutil"
	"humanjournal/internal/timeauth"
)

type beacon struct {
	http *testutil.FakeHTTPDoer
	box  *testutil.FakeTimelockBox
	auth *timeauth.DrandAuthority
}

func newBeacon(round uint64) *beacon {
	b := &beacon{
		http: &testutil.FakeHTTPDoer{
			Responses: map[string]*http.Response{
				"/info": testutil.MakeDrandInfoResponse(),
			},
		},
		box: &testutil.FakeTimelockBox{},
	}
	b.auth = timeauth.NewDrandAuthorityWithDeps(b.http, b.box)
	b.advance(round)
	return b
}

func (b *beacon) advance(round uint64) {
	b.http.Responses["/public/latest"] = testutil.MakeDrandPublicResponse(round)
	b.box.SetRound(round)
}

func roundFor(t time.Time) uint64 {
	elapsed := t.Unix() - testutil.DrandGenesis
	return uint64(elapsed/int64(testutil.DrandPeriod)) + 1
}

func TestWitness_StoredOnCommit(t *testing.T) {
	unlock := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBeacon(100)
	lock, _ := newLock(t, &stubClock{now: base}, WithWitness(NewDrandWitness(b.auth)))

	require.NoError(t, lock.SetUnlockDate(context.Background(), unlock))

	s, err := lock.Witness()
	require.NoError(t, err)
	assert.Equal(t, roundFor(unlock), s.Round)
	assert.NotEmpty(t, s.Ciphertext)
}

func TestWitnessOpened(t *testing.T) {
	unlock := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBeacon(100)
	lock, _ := newLock(t, &stubClock{now: base}, WithWitness(NewDrandWitness(b.auth)))
	ctx := context.Background()
	require.NoError(t, lock.SetUnlockDate(ctx, unlock))

	opened, err := lock.WitnessOpened(ctx)
	require.NoError(t, err)
	assert.False(t, opened)

	b.advance(roundFor(unlock))
	opened, err = lock.WitnessOpened(ctx)
	require.NoError(t, err)
	assert.True(t, opened)
}

func TestWitnessOpened_Mismatch(t *testing.T) {
	unlock := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBeacon(100)
	store := secretstore.NewMemoryStore()
	witness := NewDrandWitness(b.auth)
	ctx := context.Background()

	// A witness made for a different instant than the stored commitment.
	other := New(secretstore.NewMemoryStore(), &stubClock{now: base}, WithWitness(witness))
	require.NoError(t, other.SetUnlockDate(ctx, unlock.Add(time.Hour)))
	raw, err := other.store.Get(WitnessKey)
	require.NoError(t, err)
	require.NoError(t, store.Put(WitnessKey, raw))

	lock := New(store, &stubClock{now: base}, WithWitness(witness))
	require.NoError(t, store.Put(UnlockDateKey, []byte(`"2030-01-01T00:00:00Z"`)))

	b.advance(roundFor(unlock.Add(time.Hour)))
	_, err = lock.WitnessOpened(ctx)
	assert.ErrorIs(t, err, ErrWitnessMismatch)
}

func TestWitness_FailureDoesNotBlockCommit(t *testing.T) {
	b := newBeacon(100)
	b.box.EncryptError = errors.New("beacon unreachable")
	lock, _ := newLock(t, &stubClock{now: base}, WithWitness(NewDrandWitness(b.auth)))
	ctx := context.Background()

	require.NoError(t, lock.SetUnlockDate(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, lock.IsUnlockDateSet())

	_, err := lock.Witness()
	assert.ErrorIs(t, err, ErrNoWitness)
}

func TestWitnessOpened_NoWitnessConfigured(t *testing.T) {
	lock, _ := newLock(t, &stubClock{now: base})
	_, err := lock.WitnessOpened(context.Background())
	assert.ErrorIs(t, err, ErrNoWitness)
}

func TestWitnessOpened_BeaconOffline(t *testing.T) {
	unlock := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBeacon(100)
	lock, _ := newLock(t, &stubClock{now: base}, WithWitness(NewDrandWitness(b.auth)))
	ctx := context.Background()
	require.NoError(t, lock.SetUnlockDate(ctx, unlock))

	b.http.Errors = map[string]error{"/public/latest": errors.New("offline")}
	opened, err := lock.WitnessOpened(ctx)
	assert.Error(t, err)
	assert.False(t, opened)
}
