// Command mq3d runs the breathalyzer state machine against a simulated MQ3
// sensor, persisting calibrations to SQLite and exposing Prometheus metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/amp-labs/amp-tfsm/bgworker"
	"github.com/amp-labs/amp-tfsm/build"
	"github.com/amp-labs/amp-tfsm/calibstore"
	"github.com/amp-labs/amp-tfsm/envutil"
	"github.com/amp-labs/amp-tfsm/logger"
	"github.com/amp-labs/amp-tfsm/mq3app"
	"github.com/amp-labs/amp-tfsm/poller"
	"github.com/amp-labs/amp-tfsm/sensor"
	"github.com/amp-labs/amp-tfsm/should"
	"github.com/amp-labs/amp-tfsm/shutdown"
	"github.com/amp-labs/amp-tfsm/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "mq3d"

func main() {
	ctx := shutdown.SetupHandler()
	ctx = logger.WithSubsystem(ctx, subsystem)

	site := envutil.String(ctx, "MQ3_SITE", envutil.Default("local")).ValueOrFatal()

	telemetryConfig, err := telemetry.LoadConfigFromEnv(ctx, site)
	if err != nil {
		logger.Fatal("invalid telemetry config", "error", err)
	}

	var opts []logger.Option

	bridge, err := telemetry.LogHandler(ctx, telemetryConfig)
	if err != nil {
		logger.Fatal("unable to set up log export", "error", err)
	}

	if bridge != nil {
		opts = append(opts, logger.WithBridge(bridge))
	}

	log := logger.ConfigureLogging(ctx, subsystem, opts...)

	if err := telemetry.Initialize(ctx, telemetryConfig); err != nil {
		logger.Fatal("unable to initialize tracing", "error", err)
	}

	shutdown.BeforeShutdown("telemetry", func() {
		sctx, cancel := context.WithTimeout(context.Background(), telemetryConfig.Timeout)
		defer cancel()

		if err := telemetry.Shutdown(sctx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	})

	if err := run(ctx, log); err != nil {
		logger.Fatal("mq3d stopped", "error", err)
	}

	// The poller stops from the first hook; wait for the rest.
	<-ctx.Done()
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg, err := mq3app.LoadConfig(ctx)
	if err != nil {
		return err
	}

	dbPath := envutil.String(ctx, "MQ3_DB", envutil.Default("mq3.db")).ValueOrFatal()

	store, err := calibstore.Open(ctx, dbPath)
	if err != nil {
		return err
	}

	shutdown.BeforeShutdown("calibration store", func() {
		should.Close(store, "closing calibration store", "path", dbPath)
	})

	// Registered after the store so pending saves drain before it closes.
	workers := bgworker.New(ctx, "calibration-saves").StopOnShutdown()

	adc := sensor.NewSimulatedADC(
		envutil.Float64(ctx, "MQ3_SIM_COLD_VOLTS", envutil.Default(2.0)).ValueOrFatal(),
		envutil.Float64(ctx, "MQ3_SIM_SETTLED_VOLTS", envutil.Default(0.4)).ValueOrFatal(),
		uint64(envutil.Int[int64](ctx, "MQ3_SIM_TAU_READS", envutil.Default[int64](2_000_000)).ValueOrFatal()), //nolint:gosec
		envutil.Float64(ctx, "MQ3_SIM_NOISE_VOLTS", envutil.Default(0.01)).ValueOrFatal(),
		uint64(time.Now().UnixNano()), //nolint:gosec
	)

	ctrl, err := mq3app.New(ctx, cfg, mq3app.Deps{
		Sensor:  sensor.NewMQ3(adc),
		Store:   store,
		Workers: workers,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	serveMetrics(ctx)

	resolution := envutil.Duration(ctx, "MQ3_POLL_RESOLUTION",
		envutil.Default(poller.DefaultResolution)).ValueOrFatal()

	log.Info("starting state machine",
		"table", ctrl.Table().Name,
		"fingerprint", ctrl.Table().Fingerprint,
		"db", dbPath,
		"version", build.Current().Version)

	pollCtx, stopPolling := context.WithCancel(ctx)
	polled := make(chan struct{})

	// Hooks run in reverse order, so the poller stops before the workers
	// drain and the store closes.
	shutdown.BeforeShutdown("poller", func() {
		stopPolling()
		<-polled
	})

	defer close(polled)

	return poller.New(ctrl.Engine(),
		poller.WithName("mq3"),
		poller.WithResolution(resolution),
		poller.WithTickLogging(envutil.Bool(ctx, "MQ3_POLL_LOG_TICKS", envutil.Default(false)).ValueOrFatal()),
	).Run(pollCtx)
}

func serveMetrics(ctx context.Context) {
	addr := envutil.String(ctx, "METRICS_ADDR", envutil.Default(":9090")).ValueOrFatal()
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown.BeforeShutdown("metrics server", func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(sctx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	})

	go func() {
		slog.Info("serving metrics", "addr", addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("metrics server failed", "error", err)
		}
	}()
}
