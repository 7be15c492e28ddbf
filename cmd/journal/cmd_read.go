package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"humanjournal/internal/app"
)

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [YYYY-MM-DD]",
		Short: "Read one entry (only after the unlock date)",
		Args:  cobra.MaximumNArgs(1),
		RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			day, err := parseDayArg(args, a.Journal.Today())
			if err != nil {
				return err
			}

			stop := startSpinner("Verifying the current time...")
			e, err := a.Journal.Entry(cmd.Context(), day)
			stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.New(color.Bold).Sprint(e.Day.Format(dateLayout)))
			fmt.Fprintln(out)
			fmt.Fprintln(out, e.Text)
			return nil
		}),
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every entry, newest first (only after the unlock date)",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			stop := startSpinner("Verifying the current time...")
			entries, err := a.Journal.AllEntries(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no entries")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", color.CyanString(e.Day.Format("2006-01-02")), preview(e.Text, 60))
			}
			return nil
		}),
	}
}

// preview returns the first line of text, cut to at most n runes.
func preview(text string, n int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	r := []rune(line)
	if len(r) <= n {
		return line
	}
	return string(r[:n-1]) + "…"
}
