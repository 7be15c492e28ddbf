package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"humanjournal/internal/app"
	"humanjournal/internal/config"
	"humanjournal/internal/logging"
)

const longText = `journal - a daily journal you cannot read until the date you chose

Write one entry a day. Entries are encrypted as soon as they are saved and
stay sealed until the unlock date set at init, checked against trusted
time sources rather than your computer's clock.

The unlock date is permanent. No undo. No early unlock.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "journal",
		Short:         "A time-locked daily journal",
		Long:          longText,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newInitCmd(),
		newStatusCmd(),
		newWriteCmd(),
		newReadCmd(),
		newListCmd(),
		newClockCmd(),
		newReminderCmd(),
	)
	return root
}

// runWithApp builds the application for one command run and closes it
// afterwards.
func runWithApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		log := logging.NewText(cmd.ErrOrStderr(), cfg.LogLevel)

		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(cmd, args, a)
	}
}
