package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"humanjournal/internal/app"
	"humanjournal/internal/journal"
)

func newInitCmd() *cobra.Command {
	var unlock, remind string

	cmd := &cobra.Command{
		Use:   "init --unlock <date>",
		Short: "Choose the unlock date (permanent)",
		Long: `Set the date your journal unlocks. It must be at least 30 days away.
The date accepts RFC3339 (2026-12-31T20:00:00Z) or a plain day (2026-12-31,
meaning midnight local time).

This cannot be changed once set.`,
		Args: cobra.NoArgs,
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if unlock == "" {
				return errors.New("--unlock is required")
			}

			unlockAt, err := parseUnlock(unlock)
			if err != nil {
				return err
			}

			hour, minute, err := parseTimeOfDay(remind)
			if err != nil {
				return err
			}

			stop := startSpinner("Verifying the current time...")
			err = a.Onboard(cmd.Context(), unlockAt, hour, minute)
			stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printOK(out, "Journal unlocks on %s", unlockAt.Local().Format(dateLayout))
			printOK(out, "Daily reminder at %02d:%02d", hour, minute)
			printHint(out, "This date cannot be changed.")
			return nil
		}),
	}

	cmd.Flags().StringVar(&unlock, "unlock", "", "unlock date, RFC3339 or YYYY-MM-DD")
	cmd.Flags().StringVar(&remind, "reminder", "21:00", "daily reminder time, HH:MM")
	return cmd
}

func parseUnlock(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid unlock date %q: use RFC3339 or YYYY-MM-DD", s)
}

func parseTimeOfDay(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: use HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// parseDayArg reads an optional YYYY-MM-DD argument, defaulting to today.
func parseDayArg(args []string, today time.Time) (time.Time, error) {
	if len(args) == 0 {
		return today, nil
	}
	d, err := journal.ParseDay(args[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: use YYYY-MM-DD", args[0])
	}
	return d, nil
}
