package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"humanjournal/internal/app"
	"humanjournal/internal/draft"
	"humanjournal/internal/journal"
)

type writeOptions struct {
	update         bool
	file           string
	shred          bool
	clearClipboard bool
}

func newWriteCmd() *cobra.Command {
	var opts writeOptions

	cmd := &cobra.Command{
		Use:   "write [text]",
		Short: "Write today's entry",
		Long: `Write today's entry. The text comes from the arguments, from --file,
or from stdin when neither is given. Use --update to replace an entry
already written today.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.file != "" && len(args) > 0 {
				return errors.New("cannot combine --file with text arguments")
			}
			if opts.shred && opts.file == "" {
				return errors.New("--shred requires --file")
			}
			if opts.clearClipboard && (opts.file != "" || len(args) > 0) {
				return errors.New("--clear-clipboard only applies when reading from stdin")
			}
			return nil
		},
		RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			text, err := entryText(cmd, args, opts.file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			today := a.Journal.Today()

			var e journal.Entry
			if opts.update {
				e, err = a.Journal.UpdateEntry(ctx, today, text)
			} else {
				e, err = a.Journal.SaveEntry(ctx, today, text)
			}
			if errors.Is(err, journal.ErrEntryExists) {
				return fmt.Errorf("%w (use --update to replace it)", err)
			}
			if err != nil {
				return err
			}

			printOK(cmd.OutOrStdout(), "Entry sealed for %s", e.Day.Format(dateLayout))

			// Only after the entry is stored; a failed write keeps the draft.
			var warnings []string
			if opts.shred {
				printWarn(cmd.ErrOrStderr(), "--shred is best-effort and may not securely delete data on modern filesystems")
				warnings = append(warnings, draft.Shred(opts.file)...)
			}
			if opts.clearClipboard {
				warnings = append(warnings, draft.ClearClipboard()...)
			}
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), w)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&opts.update, "update", false, "replace today's entry")
	cmd.Flags().StringVar(&opts.file, "file", "", "read the entry from a draft file")
	cmd.Flags().BoolVar(&opts.shred, "shred", false, "overwrite and remove the draft file after sealing (best-effort)")
	cmd.Flags().BoolVar(&opts.clearClipboard, "clear-clipboard", false, "clear the clipboard after sealing (best-effort)")
	return cmd
}

func entryText(cmd *cobra.Command, args []string, file string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	var (
		text string
		err  error
	)
	if file != "" {
		text, err = draft.ReadFile(file)
	} else {
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Write today's entry. Finish with Ctrl-D.")
		}
		text, err = draft.Read(in)
	}
	if errors.Is(err, draft.ErrEmpty) {
		return "", journal.ErrEmptyEntry
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return "", journal.ErrEmptyEntry
	}
	return text, nil
}
