package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/amp-labs/amp-tfsm/calibstore"
	"github.com/amp-labs/amp-tfsm/envutil"
	"github.com/spf13/cobra"
)

// App is the mq3ctl command tree.
type App struct {
	root   *cobra.Command
	stdin  io.ReadCloser
	stdout io.Writer
	stderr io.Writer
	dbPath string
}

// New builds the command tree. The database path defaults to MQ3_DB, as for mq3d.
func New() *App {
	app := &App{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "mq3ctl",
		Short: "Inspect the MQ3 breathalyzer",
		Long: `mq3ctl reads the calibration database written by mq3d and prints the
state table the daemon runs.

Examples:
  # Show the five newest calibrations
  mq3ctl show -n 5

  # Forget every calibration so the next start recalibrates
  mq3ctl clear -y

  # Print the embedded state table
  mq3ctl states`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	dflt := envutil.String(context.Background(), "MQ3_DB", envutil.Default("mq3.db")).ValueOrElse("mq3.db")
	app.root.PersistentFlags().StringVar(&app.dbPath, "db", dflt, "Path to the calibration database")

	app.root.AddCommand(
		app.newShowCmd(),
		app.newClearCmd(),
		app.newStatesCmd(),
		app.newVersionCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)

	return a
}

// Execute runs the command line of the process.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the given arguments instead of os.Args.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)

	return a.Execute(ctx)
}

func (a *App) openStore(ctx context.Context) (*calibstore.Store, error) {
	return calibstore.Open(ctx, a.dbPath)
}
