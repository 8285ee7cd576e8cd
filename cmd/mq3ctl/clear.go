package main

import (
	"fmt"
	"io"

	"github.com/amp-labs/amp-tfsm/cli"
	"github.com/amp-labs/amp-tfsm/should"
	"github.com/spf13/cobra"
)

type clearOptions struct {
	yes bool
}

func (a *App) newClearCmd() *cobra.Command {
	opts := &clearOptions{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored calibration",
		Long: `Delete every stored calibration. The next mq3d start finds nothing in
CONFIG and runs a fresh calibration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prompter := &cli.Prompter{
				AssumeYes: opts.yes,
				Stdin:     a.stdin,
				Stdout:    nopCloser{a.stdout},
			}

			ok, err := prompter.Confirm(fmt.Sprintf("Delete all calibrations in %s", a.dbPath))
			if err != nil {
				return err
			}

			if !ok {
				_, _ = fmt.Fprintln(a.stdout, "aborted")

				return nil
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer should.Close(store, "closing calibration store", "path", a.dbPath)

			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(a.stdout, "deleted %d calibration(s)\n", n)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
