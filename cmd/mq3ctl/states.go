package main

import (
	"fmt"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-tfsm/mq3app"
	"github.com/amp-labs/amp-tfsm/tfsm"
	"github.com/spf13/cobra"
)

type statesOptions struct {
	tablePath string
}

func (a *App) newStatesCmd() *cobra.Command {
	opts := &statesOptions{}

	cmd := &cobra.Command{
		Use:   "states",
		Short: "Print the state table mq3d runs",
		Long: `Print the state table mq3d runs: the embedded one, or the file given
with --table (the same file MQ3_TABLE points the daemon at).`,
		RunE: func(_ *cobra.Command, _ []string) error {
			table, err := mq3app.LoadTable(opts.tablePath)
			if err != nil {
				return err
			}

			return a.printTable(table)
		},
	}

	cmd.Flags().StringVarP(&opts.tablePath, "table", "t", "", "State table file (default: embedded)")

	return cmd
}

func (a *App) printTable(table *tfsm.Config) error {
	maxCycle := table.MaxCyclePeriod
	if maxCycle <= 0 {
		maxCycle = tfsm.DefaultMaxCyclePeriod
	}

	_, _ = fmt.Fprintf(a.stdout, "%s  fingerprint=%016x  max-cycle=%s\n\n", table.Name, table.Fingerprint, maxCycle)
	_, _ = fmt.Fprintf(a.stdout, "%3s  %-12s  %8s  %10s  %5s  %-12s  %-12s  %s\n",
		"#", "STATE", "CYCLE", "STEPS", "DELAY", "PRIMARY", "ALTERNATE", "ACTION")

	callbacks := map[string]struct{}{}

	for i, st := range table.States {
		alternate := st.Alternate
		if alternate == "" {
			alternate = st.Primary
		}

		cycle := st.Cycle
		if cycle > maxCycle {
			cycle = maxCycle
		}

		_, _ = fmt.Fprintf(a.stdout, "%3d  %-12s  %8s  %10d  %5d  %-12s  %-12s  %s\n",
			i, st.Name, cycle, st.Steps, st.Delay, st.Primary, alternate, st.Action)

		for _, name := range []string{st.Action, st.OnDelay} {
			if name != "" {
				callbacks[name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(callbacks))
	for name := range callbacks {
		names = append(names, name)
	}

	natsort.Sort(names)

	_, _ = fmt.Fprintf(a.stdout, "\ncallbacks: %s\n", strings.Join(names, ", "))

	return nil
}
