package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"humanjournal/internal/reminder"
	"humanjournal/internal/settings"
	"humanjournal/internal/timelock"
)

// MinLockPeriod is the shortest time between onboarding and unlock.
const MinLockPeriod = 30 * 24 * time.Hour

var (
	ErrUnlockTooSoon = errors.New("unlock date must be at least 30 days away")
	ErrNotOnboarded  = errors.New("journal is not set up yet (run init first)")
)

// Onboard creates the encryption key, commits the unlock date, and stores
// the reminder time. The commitment is irreversible, so it is the last
// step before settings are saved. Repeating a partly failed onboarding with
// the same unlock date completes it.
func (a *App) Onboard(ctx context.Context, unlockAt time.Time, hour, minute int) error {
	if err := settings.ValidateReminderTime(hour, minute); err != nil {
		return err
	}

	now := a.Oracle.VerifiedNow(ctx)
	if unlockAt.Before(now.Add(MinLockPeriod)) {
		return ErrUnlockTooSoon
	}

	if err := a.Box.EnsureKeyExists(); err != nil {
		return err
	}

	st, err := a.Settings.Load()
	if err != nil {
		return err
	}

	if err := a.Lock.SetUnlockDate(ctx, unlockAt); err != nil {
		if !errors.Is(err, timelock.ErrAlreadySet) {
			return err
		}
		c, lerr := a.Lock.UnlockDate()
		if lerr != nil {
			return lerr
		}
		if !c.Found || !c.At.Equal(unlockAt) {
			return err
		}
		a.Log.Info(ctx, "resuming onboarding for the committed unlock date")
	}

	st.ReminderHour = hour
	st.ReminderMinute = minute
	st.OnboardingComplete = true
	if err := a.Settings.Save(st); err != nil {
		return err
	}

	return a.Reminders.Schedule(hour, minute)
}

// UpdateReminderTime saves the new time and then reschedules the reminder.
func (a *App) UpdateReminderTime(ctx context.Context, hour, minute int) error {
	st, err := a.Settings.Load()
	if err != nil {
		return err
	}

	st.ReminderHour = hour
	st.ReminderMinute = minute
	if err := a.Settings.Save(st); err != nil {
		return err
	}

	if err := a.Reminders.Schedule(hour, minute); err != nil {
		return fmt.Errorf("reschedule reminder: %w", err)
	}
	a.Log.Info(ctx, "reminder time updated", "at", reminder.TimeOfDay{Hour: hour, Minute: minute}.String())
	return nil
}

// StartReminders schedules the saved reminder time once onboarding is done.
func (a *App) StartReminders(ctx context.Context) error {
	st, err := a.Settings.Load()
	if err != nil {
		return err
	}
	if !st.OnboardingComplete {
		return ErrNotOnboarded
	}
	return a.Reminders.Schedule(st.ReminderHour, st.ReminderMinute)
}

// Status is a snapshot of the journal for display.
type Status struct {
	Committed     bool
	UnlockAt      time.Time
	Access        error
	DaysLeft      int
	Entries       int
	WrittenToday  bool
	Reminder      reminder.TimeOfDay
	Onboarded     bool
	WitnessRound  uint64
	WitnessOpened bool
}

func (s Status) Unlocked() bool {
	return s.Committed && s.Access == nil
}

// Status gathers the journal state. Access holds the reason reading is
// refused, if it is.
func (a *App) Status(ctx context.Context) (Status, error) {
	var s Status

	c, err := a.Lock.UnlockDate()
	if err != nil {
		return s, err
	}
	s.Committed = c.Found
	s.UnlockAt = c.At
	s.Access = a.Lock.CheckAccessAllowed(ctx)
	s.DaysLeft = a.Lock.DaysUntilUnlock(ctx)

	if s.Entries, err = a.Journal.EntryCount(ctx); err != nil {
		return s, err
	}
	if s.WrittenToday, err = a.Journal.HasEntryForToday(ctx); err != nil {
		return s, err
	}

	st, err := a.Settings.Load()
	if err != nil {
		return s, err
	}
	s.Reminder = reminder.TimeOfDay{Hour: st.ReminderHour, Minute: st.ReminderMinute}
	s.Onboarded = st.OnboardingComplete

	if w, err := a.Lock.Witness(); err == nil {
		s.WitnessRound = w.Round
		if s.Unlocked() {
			opened, err := a.Lock.WitnessOpened(ctx)
			if err != nil && !errors.Is(err, timelock.ErrNoWitness) {
				a.Log.Warn(ctx, "beacon witness check failed", "error", err)
			}
			s.WitnessOpened = opened
		}
	}
	return s, nil
}
