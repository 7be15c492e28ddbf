package secretstore

import (
	"bytes"
	"sync"
)

// MemoryStore is an in-process Store. It does not survive restarts and is
// meant for tests and fakes.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string][]byte)}
}

func (m *MemoryStore) Put(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.secrets[name]; ok {
		return ErrAlreadyExists
	}
	m.secrets[name] = bytes.Clone(data)
	return nil
}

func (m *MemoryStore) Get(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.secrets[name]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *MemoryStore) Lookup(name string) (Lookup, error) {
	return lookupVia(m, name)
}

func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name)
	return nil
}

func (m *MemoryStore) Exists(name string) (bool, error) {
	return existsVia(m, name)
}
