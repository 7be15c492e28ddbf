//go:build darwin

package secretstore

import (
	"errors"

	keychain "github.com/keybase/go-keychain"
)

// KeychainStore keeps secrets as generic-password items in the macOS
// Keychain. Items are device-local (never synchronised) and readable only
// while the device is unlocked. They survive removal of the application's
// data directory.
type KeychainStore struct {
	service string
	label   string
}

func NewKeychainStore(service, label string) *KeychainStore {
	return &KeychainStore{service: service, label: label}
}

func (k *KeychainStore) Put(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	item := keychain.NewGenericPassword(k.service, name, k.label, data, "")
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlockedThisDeviceOnly)

	if err := keychain.AddItem(item); err != nil {
		if errors.Is(err, keychain.ErrorDuplicateItem) {
			return ErrAlreadyExists
		}
		return &StatusError{Op: "put", Name: name, Err: err}
	}
	return nil
}

func (k *KeychainStore) Get(name string) ([]byte, error) {
	data, err := keychain.GetGenericPassword(k.service, name, "", "")
	if err != nil {
		if errors.Is(err, keychain.ErrorItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StatusError{Op: "get", Name: name, Err: err}
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

func (k *KeychainStore) Lookup(name string) (Lookup, error) {
	return lookupVia(k, name)
}

func (k *KeychainStore) Delete(name string) error {
	query := keychain.NewGenericPassword(k.service, name, "", nil, "")
	if err := keychain.DeleteItem(query); err != nil && !errors.Is(err, keychain.ErrorItemNotFound) {
		return &StatusError{Op: "delete", Name: name, Err: err}
	}
	return nil
}

func (k *KeychainStore) Exists(name string) (bool, error) {
	return existsVia(k, name)
}

// NewDefault returns the platform store: the Keychain on macOS.
func NewDefault(service, _ string) (Store, error) {
	return NewKeychainStore(service, "Humanjournal secret"), nil
}
