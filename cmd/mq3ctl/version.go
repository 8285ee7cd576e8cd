package main

import (
	"fmt"

	"github.com/amp-labs/amp-tfsm/build"
	"github.com/spf13/cobra"
)

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			info := build.Current()

			_, _ = fmt.Fprintf(a.stdout, "mq3ctl version %s\n", info.Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", info.GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build time: %s\n", info.BuildTime)
			_, _ = fmt.Fprintf(a.stdout, "  Go version: %s\n", info.GoVersion)
		},
	}
}
