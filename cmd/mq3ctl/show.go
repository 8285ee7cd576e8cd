package main

import (
	"fmt"
	"time"

	"github.com/amp-labs/amp-tfsm/calibstore"
	"github.com/amp-labs/amp-tfsm/should"
	"github.com/spf13/cobra"
)

type showOptions struct {
	limit int
}

func (a *App) newShowCmd() *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List stored calibrations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer should.Close(store, "closing calibration store", "path", a.dbPath)

			records, err := store.List(cmd.Context(), opts.limit)
			if err != nil {
				return err
			}

			return a.printRecords(records)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of records (0 for all)")

	return cmd
}

func (a *App) printRecords(records []calibstore.Record) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "no calibrations stored in %s\n", a.dbPath)

		return nil
	}

	_, _ = fmt.Fprintf(a.stdout, "%-36s  %10s  %9s  %7s  %-16s  %s\n",
		"ID", "R0 (ohm)", "PRECISION", "SAMPLES", "TABLE", "CREATED")

	for _, rec := range records {
		_, _ = fmt.Fprintf(a.stdout, "%-36s  %10.1f  %8.3f%%  %7d  %016x  %s\n",
			rec.ID, rec.R0, rec.Precision, rec.Samples, rec.TableFingerprint,
			rec.CreatedAt.Local().Format(time.DateTime))
	}

	return nil
}
