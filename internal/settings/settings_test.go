package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humanjournal/internal/reminder"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	s := NewFileStore(t.TempDir())

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 21, st.ReminderHour)
	assert.Equal(t, 0, st.ReminderMinute)
	assert.False(t, st.OnboardingComplete)
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewFileStore(dir)

	want := Settings{ReminderHour: 7, ReminderMinute: 45, OnboardingComplete: true}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, FileName, entries[0].Name())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("onboarding_complete = true\n"), 0600))

	st, err := NewFileStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultReminderHour, st.ReminderHour)
	assert.True(t, st.OnboardingComplete)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("reminder_hour = ["), 0600))

	_, err := NewFileStore(dir).Load()
	assert.Error(t, err)
}

func TestLoad_OutOfRange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("reminder_hour = 24\n"), 0600))

	_, err := NewFileStore(dir).Load()
	assert.ErrorIs(t, err, ErrInvalidReminderTime)
}

func TestValidateReminderTime(t *testing.T) {
	tests := []struct {
		hour, minute int
		ok           bool
	}{
		{0, 0, true},
		{23, 59, true},
		{21, 0, true},
		{24, 0, false},
		{-1, 0, false},
		{12, 60, false},
		{12, -1, false},
	}
	for _, tt := range tests {
		err := ValidateReminderTime(tt.hour, tt.minute)
		if tt.ok {
			assert.NoError(t, err, "%02d:%02d", tt.hour, tt.minute)
		} else {
			assert.ErrorIs(t, err, ErrInvalidReminderTime, "%02d:%02d", tt.hour, tt.minute)
			assert.ErrorIs(t, err, reminder.ErrInvalidTime, "%02d:%02d", tt.hour, tt.minute)
		}
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	s := NewFileStore(t.TempDir())
	assert.ErrorIs(t, s.Save(Settings{ReminderHour: 30}), ErrInvalidReminderTime)

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}
