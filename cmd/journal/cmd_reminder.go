package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"humanjournal/internal/app"
)

func newReminderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "Manage the daily writing reminder",
	}
	cmd.AddCommand(newReminderSetCmd(), newReminderShowCmd(), newReminderWatchCmd())
	return cmd
}

func newReminderSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set HH:MM",
		Short: "Change the reminder time",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			hour, minute, err := parseTimeOfDay(args[0])
			if err != nil {
				return err
			}
			if err := a.UpdateReminderTime(cmd.Context(), hour, minute); err != nil {
				return err
			}

			printOK(cmd.OutOrStdout(), "Daily reminder at %02d:%02d", hour, minute)
			return nil
		}),
	}
}

func newReminderShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the reminder time",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			st, err := a.Settings.Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%02d:%02d\n", st.ReminderHour, st.ReminderMinute)
			return nil
		}),
	}
}

func newReminderWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay running and print the reminder each day until interrupted",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			ctx := cmd.Context()
			if err := a.StartReminders(ctx); err != nil {
				return err
			}

			sub := a.Reminders.Subscribe()
			defer sub.Cancel()

			out := cmd.OutOrStdout()
			if tod, ok := a.Reminders.Scheduled(); ok {
				printHint(out, "Reminding daily at %s. Press Ctrl-C to stop.", tod)
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-sub.C():
					if !ok {
						return nil
					}
					written, err := a.Journal.HasEntryForToday(ctx)
					if err != nil {
						a.Log.Warn(ctx, "could not check today's entry", "error", err)
					}
					if !written {
						printWarn(out, "%s Time to write today's entry.", ev.At.Format(time.Kitchen))
					}
				}
			}
		}),
	}
}
