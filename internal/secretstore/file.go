package secretstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultDir returns the OS-appropriate directory for file-backed secrets.
// It is deliberately separate from the journal data directory so clearing
// application data does not erase the unlock commitment.
func DefaultDir(app string) (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		baseDir = filepath.Join(home, "Library", "Preferences", app+"-secrets")

	case "windows":
		localAppData := os.Getenv("LocalAppData")
		if localAppData == "" {
			return "", errors.New("LocalAppData environment variable not set")
		}
		baseDir = filepath.Join(localAppData, app+"-secrets")

	default: // Linux and other Unix-like systems
		xdgStateHome := os.Getenv("XDG_STATE_HOME")
		if xdgStateHome != "" {
			baseDir = filepath.Join(xdgStateHome, app+"-secrets")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot get home directory: %w", err)
			}
			baseDir = filepath.Join(home, ".local", "state", app+"-secrets")
		}
	}

	return baseDir, nil
}

// FileStore keeps one 0600 file per secret in a 0700 directory.
//
// Put writes the value to a temporary file, syncs it, and hard-links it onto
// the final name. link(2) fails when the target exists, which gives an
// atomic no-overwrite write even across processes.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("secret store directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("cannot create secret store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name)
}

func (f *FileStore) Put(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+".*.tmp")
	if err != nil {
		return &StatusError{Op: "put", Name: name, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil && runtime.GOOS != "windows" {
		tmp.Close()
		return &StatusError{Op: "put", Name: name, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &StatusError{Op: "put", Name: name, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &StatusError{Op: "put", Name: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StatusError{Op: "put", Name: name, Err: err}
	}

	if err := os.Link(tmpPath, f.path(name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return &StatusError{Op: "put", Name: name, Err: err}
	}
	return nil
}

func (f *FileStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StatusError{Op: "get", Name: name, Err: err}
	}
	return data, nil
}

func (f *FileStore) Lookup(name string) (Lookup, error) {
	return lookupVia(f, name)
}

func (f *FileStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(f.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &StatusError{Op: "delete", Name: name, Err: err}
	}
	return nil
}

func (f *FileStore) Exists(name string) (bool, error) {
	return existsVia(f, name)
}

// validateName rejects names that would escape the store directory or
// collide with temporary files.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\:`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
