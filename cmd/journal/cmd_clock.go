package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"humanjournal/internal/app"
	"humanjournal/internal/timeoracle"
)

func newClockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clock",
		Short: "Compare this device's clock with the time authorities",
		Args:  cobra.NoArgs,
		RunE: runWithApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			ctx := cmd.Context()

			stop := startSpinner("Asking time authorities...")
			status := a.Oracle.CheckClock(ctx)
			verified := a.Oracle.VerifiedNow(ctx)
			stop()

			out := cmd.OutOrStdout()
			switch status.State {
			case timeoracle.Consistent:
				row(out, "clock", color.GreenString(status.State.String()))
			case timeoracle.Manipulated:
				row(out, "clock", color.RedString(status.State.String()))
			default:
				row(out, "clock", color.YellowString(status.State.String()))
			}

			row(out, "verified", verified.Local().Format(time.RFC3339))
			row(out, "local", time.Now().Local().Format(time.RFC3339))
			if status.State != timeoracle.Unverified {
				row(out, "skew", status.Skew.Round(time.Second).String())
			}
			return nil
		}),
	}
}
