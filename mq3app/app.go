// Package mq3app is the breathalyzer: a seven-state table that warms the MQ3
// sensor up, loads or produces a calibration, and then measures.
//
//	INIT_WARMUP -> RUN_WARMUP -> CONFIG -> MAIN
//	                               |  ^
//	                               v  | (rejected)
//	                          CALIBRATE -> VERIFY -> MAIN
//
// Any failed measurement sends the machine to RESET, which parks until the
// process is restarted.
package mq3app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amp-labs/amp-tfsm/calibration"
	"github.com/amp-labs/amp-tfsm/calibstore"
	"github.com/amp-labs/amp-tfsm/logger"
	"github.com/amp-labs/amp-tfsm/sensor"
	"github.com/amp-labs/amp-tfsm/tfsm"
)

// Store is the persistence the application needs. *calibstore.Store implements it.
type Store interface {
	Latest(ctx context.Context) (calibstore.Record, error)
	Save(ctx context.Context, rec calibstore.Record) (calibstore.Record, error)
}

// Worker runs blocking side effects off the Run path. *bgworker.Pool implements it.
type Worker interface {
	Go(f func()) error
}

// Deps are the collaborators of a Controller. Sensor is required; a nil Store
// means every start needs a calibration, a nil Workers saves inline and a nil
// Display logs.
type Deps struct {
	Sensor  *sensor.MQ3
	Store   Store
	Workers Worker
	Display Display
	Logger  *slog.Logger
}

// Controller owns the engine and the state behind its callbacks.
type Controller struct {
	ctx     context.Context //nolint:containedctx // callbacks have no context of their own
	cfg     Config
	table   *tfsm.Config
	engine  *tfsm.Engine
	sensor  *sensor.MQ3
	acc     *calibration.Accumulator
	store   Store
	workers Worker
	display Display
	logger  *slog.Logger

	mut         sync.Mutex
	r0          float64
	lastReading float64
}

// New loads the state table, binds the callbacks and starts the engine in
// INIT_WARMUP. ctx scopes logging and persistence for the controller's lifetime.
func New(ctx context.Context, cfg Config, deps Deps) (*Controller, error) {
	cfg = cfg.withDefaults()

	table, err := LoadTable(cfg.TablePath)
	if err != nil {
		return nil, err
	}

	applyOverrides(table, cfg)

	ctrl := &Controller{
		ctx:     logger.WithMachine(ctx, table.Name),
		cfg:     cfg,
		table:   table,
		sensor:  deps.Sensor,
		store:   deps.Store,
		workers: deps.Workers,
		display: deps.Display,
		logger:  deps.Logger,
		acc: calibration.New(
			calibration.WithName(table.Name),
			calibration.WithPlausibleRange(sensor.MinR0, sensor.MaxR0),
		),
	}

	if ctrl.logger == nil {
		ctrl.logger = logger.Get(ctrl.ctx)
	}

	if ctrl.display == nil {
		ctrl.display = NewLogDisplay(ctrl.logger)
	}

	reg, err := ctrl.registry()
	if err != nil {
		return nil, err
	}

	ctrl.engine, err = tfsm.NewFromConfig(table, reg, tfsm.WithLogger(tfsm.NewDefaultLogger(deps.Logger)))
	if err != nil {
		return nil, err
	}

	return ctrl, nil
}

func (c *Controller) registry() (*tfsm.Registry, error) {
	reg := tfsm.NewRegistry()

	callbacks := map[string]tfsm.Callback{
		callbackInitWarmup:   tfsm.Func(c.initWarmup),
		callbackRunWarmup:    tfsm.Func(c.runWarmup),
		callbackConfig:       tfsm.Func(c.loadConfig),
		callbackCalibrate:    tfsm.Func(c.calibrate),
		callbackVerify:       tfsm.Func(c.verify),
		callbackMeasure:      tfsm.Func(c.measure),
		callbackReset:        tfsm.ArgFunc(c.reset),
		callbackClearDisplay: tfsm.Func(c.display.Clear),
	}

	for name, cb := range callbacks {
		if err := reg.Register(name, cb); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Engine returns the state machine for the driver loop.
func (c *Controller) Engine() *tfsm.Engine {
	return c.engine
}

// Table returns the state table description in use, after overrides.
func (c *Controller) Table() *tfsm.Config {
	return c.table
}

// Calibration exposes the sample accumulator for diagnostics.
func (c *Controller) Calibration() *calibration.Accumulator {
	return c.acc
}

// R0 returns the clean-air resistance in use, zero before configuration.
func (c *Controller) R0() float64 {
	c.mut.Lock()
	defer c.mut.Unlock()

	return c.r0
}

// LastReading returns the most recent concentration in mg/L.
func (c *Controller) LastReading() float64 {
	c.mut.Lock()
	defer c.mut.Unlock()

	return c.lastReading
}

func (c *Controller) setR0(r0 float64) {
	c.mut.Lock()
	c.r0 = r0
	c.mut.Unlock()

	r0Gauge.Set(r0)
}
