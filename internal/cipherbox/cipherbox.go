// Package cipherbox seals journal payloads with AES-256-GCM under a single
// installation key kept in the secret store.
//
// Sealed payloads are laid out as nonce(12) || ciphertext || tag(16). The
// key is created lazily, stored with a no-overwrite write, and never
// rotated. Errors never carry plaintext, key bytes, or the underlying
// crypto failure.
package cipherbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"humanjournal/internal/secretstore"
)

const (
	KeyName   = "com.humanjournal.encryptionkey"
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var (
	ErrKeyGenerationFailed = errors.New("failed to generate encryption key")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrInvalidData         = errors.New("decrypted data is not valid text")
)

type Box struct {
	store secretstore.Store
	rand  io.Reader
}

type Option func(*Box)

// WithRandom replaces the entropy source used for keys and nonces.
func WithRandom(r io.Reader) Option {
	return func(b *Box) { b.rand = r }
}

func New(store secretstore.Store, opts ...Option) *Box {
	b := &Box{store: store, rand: rand.Reader}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EnsureKeyExists creates the installation key if there is none. It is
// idempotent and safe to race: losing the write to another caller counts
// as success.
func (b *Box) EnsureKeyExists() error {
	ok, err := b.store.Exists(KeyName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyGenerationFailed, err)
	}
	if ok {
		return nil
	}

	key := make([]byte, KeySize)
	defer zero(key)

	if _, err := io.ReadFull(b.rand, key); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyGenerationFailed, err)
	}

	if err := b.store.Put(KeyName, key); err != nil && !errors.Is(err, secretstore.ErrAlreadyExists) {
		return fmt.Errorf("%w: %w", ErrKeyGenerationFailed, err)
	}
	return nil
}

// Encrypt seals plaintext under the installation key with a fresh nonce.
func (b *Box) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, ErrEncryptionFailed
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(b.rand, out); err != nil {
		return nil, ErrEncryptionFailed
	}

	return gcm.Seal(out, out[:NonceSize], plaintext, nil), nil
}

// Decrypt opens a sealed payload. Every failure, from a missing key to a
// forged tag, is reported as ErrDecryptionFailed.
func (b *Box) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, ErrDecryptionFailed
	}

	gcm, err := b.aead()
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func (b *Box) EncryptString(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, ErrInvalidData
	}
	return b.Encrypt([]byte(s))
}

func (b *Box) DecryptToString(sealed []byte) (string, error) {
	plaintext, err := b.Decrypt(sealed)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", ErrInvalidData
	}
	return string(plaintext), nil
}

// aead loads the key and builds the cipher. The key copy is zeroed before
// returning; the cipher keeps its own expanded schedule.
func (b *Box) aead() (cipher.AEAD, error) {
	key, err := b.store.Get(KeyName)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	if len(key) != KeySize {
		return nil, fmt.Errorf("unexpected key size %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
