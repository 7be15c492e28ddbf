package cipherbox

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humanjournal/internal/secretstore"
)

func newBox(t *testing.T) (*Box, *secretstore.MemoryStore) {
	t.Helper()
	store := secretstore.NewMemoryStore()
	box := New(store)
	require.NoError(t, box.EnsureKeyExists())
	return box, store
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestRoundTrip(t *testing.T) {
	box, _ := newBox(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("today I walked to the lake")},
		{"binary", []byte{0, 1, 2, 255, 254}},
		{"large", bytes.Repeat([]byte("x"), 1<<16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := box.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.Len(t, sealed, NonceSize+len(tt.plaintext)+TagSize)

			got, err := box.Decrypt(sealed)
			require.NoError(t, err)
			assert.Equal(t, len(tt.plaintext), len(got))
			assert.True(t, bytes.Equal(tt.plaintext, got))
		})
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	box, _ := newBox(t)
	plaintext := []byte("same words twice")

	a, err := box.Encrypt(plaintext)
	require.NoError(t, err)
	b, err := box.Encrypt(plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a[:NonceSize], b[:NonceSize])
}

func TestDecrypt_TamperedTag(t *testing.T) {
	box, _ := newBox(t)

	for i := 0; i < 50; i++ {
		sealed, err := box.Encrypt([]byte("do not touch"))
		require.NoError(t, err)

		sealed[len(sealed)-1] ^= 0x01
		_, err = box.Decrypt(sealed)
		require.ErrorIs(t, err, ErrDecryptionFailed)
	}
}

func TestDecrypt_TamperedBody(t *testing.T) {
	box, _ := newBox(t)
	sealed, err := box.Encrypt([]byte("do not touch"))
	require.NoError(t, err)

	sealed[NonceSize] ^= 0xff
	_, err = box.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_Malformed(t *testing.T) {
	box, _ := newBox(t)

	for _, blob := range [][]byte{nil, {}, make([]byte, NonceSize), make([]byte, NonceSize+TagSize-1), make([]byte, NonceSize+TagSize)} {
		_, err := box.Decrypt(blob)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	}
}

func TestDecrypt_ErrorCarriesNoCause(t *testing.T) {
	box, _ := newBox(t)
	_, err := box.Decrypt([]byte("short"))
	assert.Same(t, ErrDecryptionFailed, err)
}

func TestDecrypt_WrongKey(t *testing.T) {
	a, _ := newBox(t)
	b, _ := newBox(t)

	sealed, err := a.Encrypt([]byte("private"))
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestAbsentKey(t *testing.T) {
	box := New(secretstore.NewMemoryStore())

	sealed, err := box.Encrypt([]byte("hello"))
	assert.Nil(t, sealed)
	assert.ErrorIs(t, err, ErrEncryptionFailed)

	_, err = box.Decrypt(make([]byte, 64))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncrypt_EntropyFailure(t *testing.T) {
	store := secretstore.NewMemoryStore()
	require.NoError(t, New(store).EnsureKeyExists())

	box := New(store, WithRandom(failingReader{}))
	sealed, err := box.Encrypt([]byte("hello"))
	assert.Nil(t, sealed)
	assert.ErrorIs(t, err, ErrEncryptionFailed)
}

func TestEnsureKeyExists_EntropyFailure(t *testing.T) {
	store := secretstore.NewMemoryStore()
	box := New(store, WithRandom(failingReader{}))

	assert.ErrorIs(t, box.EnsureKeyExists(), ErrKeyGenerationFailed)
	ok, err := store.Exists(KeyName)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureKeyExists_Idempotent(t *testing.T) {
	box, store := newBox(t)

	first, err := store.Get(KeyName)
	require.NoError(t, err)
	require.Len(t, first, KeySize)

	require.NoError(t, box.EnsureKeyExists())
	second, err := store.Get(KeyName)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnsureKeyExists_Concurrent(t *testing.T) {
	store := secretstore.NewMemoryStore()
	box := New(store)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, box.EnsureKeyExists())
		}()
	}
	wg.Wait()

	sealed, err := box.Encrypt([]byte("after the race"))
	require.NoError(t, err)
	got, err := box.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "after the race", string(got))
}

func TestKeyNotZeroedInStore(t *testing.T) {
	box, store := newBox(t)

	_, err := box.Encrypt([]byte("x"))
	require.NoError(t, err)

	key, err := store.Get(KeyName)
	require.NoError(t, err)
	assert.NotEqual(t, make([]byte, KeySize), key)
}

func TestStrings(t *testing.T) {
	box, _ := newBox(t)

	sealed, err := box.EncryptString("héllo, wörld ✍")
	require.NoError(t, err)
	got, err := box.DecryptToString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "héllo, wörld ✍", got)
}

func TestStrings_InvalidUTF8(t *testing.T) {
	box, _ := newBox(t)

	_, err := box.EncryptString(string([]byte{0xff, 0xfe}))
	assert.ErrorIs(t, err, ErrInvalidData)

	sealed, err := box.Encrypt([]byte{0xff, 0xfe, 0xfd})
	require.NoError(t, err)
	_, err = box.DecryptToString(sealed)
	assert.ErrorIs(t, err, ErrInvalidData)
}
