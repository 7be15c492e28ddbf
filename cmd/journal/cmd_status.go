package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"humanjournal/internal/app"
	"humanjournal/internal/timelock"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the journal is locked and how many entries it holds",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			stop := startSpinner("Verifying the current time...")
			s, err := a.Status(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			formatStatus(cmd.OutOrStdout(), s)
			return nil
		}),
	}
}

func formatStatus(w io.Writer, s app.Status) {
	if !s.Committed {
		printWarn(w, "No unlock date set")
		printHint(w, "Run 'journal init --unlock <date>' to begin")
		return
	}

	switch {
	case s.Unlocked():
		row(w, "state", color.GreenString("unlocked"))
	case errors.Is(s.Access, timelock.ErrDateManipulationDetected):
		row(w, "state", color.RedString("locked (device clock does not match verified time)"))
	case errors.Is(s.Access, timelock.ErrTimeUnverified):
		row(w, "state", color.YellowString("locked (time could not be verified)"))
	default:
		row(w, "state", color.YellowString("locked"))
	}

	row(w, "unlocks", s.UnlockAt.Local().Format(dateLayout))
	if !s.Unlocked() {
		row(w, "remaining", plural(s.DaysLeft, "day"))
	}
	row(w, "entries", fmt.Sprint(s.Entries))
	if s.WrittenToday {
		row(w, "today", "written")
	} else {
		row(w, "today", "not written yet")
	}
	row(w, "reminder", s.Reminder.String())

	if s.WitnessRound != 0 {
		witness := fmt.Sprintf("drand round %d", s.WitnessRound)
		if s.WitnessOpened {
			witness += ", released"
		}
		row(w, "witness", witness)
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-11s%s\n", label+":", value)
}
