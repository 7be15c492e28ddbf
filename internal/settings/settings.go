// Package settings persists user preferences as a TOML file.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"humanjournal/internal/reminder"
)

const FileName = "settings.toml"

const (
	DefaultReminderHour   = 21
	DefaultReminderMinute = 0
)

// ErrInvalidReminderTime is the reminder package's range error, so callers
// see one sentinel whichever layer rejects the time.
var ErrInvalidReminderTime = reminder.ErrInvalidTime

type Settings struct {
	ReminderHour       int  `toml:"reminder_hour"`
	ReminderMinute     int  `toml:"reminder_minute"`
	OnboardingComplete bool `toml:"onboarding_complete"`
}

func Defaults() Settings {
	return Settings{
		ReminderHour:   DefaultReminderHour,
		ReminderMinute: DefaultReminderMinute,
	}
}

// ValidateReminderTime rejects anything that is not a wall-clock time.
func ValidateReminderTime(hour, minute int) error {
	return reminder.TimeOfDay{Hour: hour, Minute: minute}.Validate()
}

type FileStore struct {
	path string
}

// NewFileStore stores settings in dir/settings.toml.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

func (s *FileStore) Path() string { return s.path }

// Load returns the saved settings, or the defaults when nothing was saved.
func (s *FileStore) Load() (Settings, error) {
	st := Defaults()
	if _, err := toml.DecodeFile(s.path, &st); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := ValidateReminderTime(st.ReminderHour, st.ReminderMinute); err != nil {
		return Settings{}, fmt.Errorf("settings file %s: %w", s.path, err)
	}
	return st, nil
}

// Save replaces the settings file atomically.
func (s *FileStore) Save(st Settings) error {
	if err := ValidateReminderTime(st.ReminderHour, st.ReminderMinute); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(st); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}
