package mq3app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/amp-labs/amp-tfsm/envutil"
)

const (
	DefaultWarmup           = 24 * time.Hour
	DefaultCalibrationSteps = 200
	DefaultThreshold        = 1.0
	// DefaultWarmupVolts is the clean-air output below which the heater is
	// considered warm.
	DefaultWarmupVolts = 0.61
	// DefaultWarmupCheckEvery is how many warm-up steps pass between sensor checks.
	DefaultWarmupCheckEvery = 10
	// DefaultWarmupHold is the delay, in steps, after an early warm-up exit.
	DefaultWarmupHold = 3

	DefaultSaveAttempts = 3
	DefaultSaveBackoff  = 250 * time.Millisecond
)

var (
	errNotPositive = errors.New("must be positive")
	errNotFinite   = errors.New("must be finite")
)

// Config tunes the application. The zero value of a field means its default.
type Config struct {
	Warmup           time.Duration
	CalibrationSteps int32
	Threshold        float64
	WarmupVolts      float64
	WarmupCheckEvery int32
	WarmupHold       int32
	// SaveAttempts and SaveBackoff bound the retries of a calibration save.
	SaveAttempts int32
	SaveBackoff  time.Duration
	// TablePath replaces the embedded state table when set.
	TablePath string
}

func (c Config) withDefaults() Config {
	if c.Warmup <= 0 {
		c.Warmup = DefaultWarmup
	}

	if c.CalibrationSteps <= 0 {
		c.CalibrationSteps = DefaultCalibrationSteps
	}

	if positive(c.Threshold) != nil {
		c.Threshold = DefaultThreshold
	}

	if positive(c.WarmupVolts) != nil {
		c.WarmupVolts = DefaultWarmupVolts
	}

	if c.WarmupCheckEvery <= 0 {
		c.WarmupCheckEvery = DefaultWarmupCheckEvery
	}

	if c.WarmupHold <= 0 {
		c.WarmupHold = DefaultWarmupHold
	}

	if c.SaveAttempts <= 0 {
		c.SaveAttempts = DefaultSaveAttempts
	}

	if c.SaveBackoff <= 0 {
		c.SaveBackoff = DefaultSaveBackoff
	}

	return c
}

func positive[T int32 | float64 | time.Duration](v T) error {
	f := float64(v)

	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return fmt.Errorf("%v %w", v, errNotFinite)
	case v <= 0:
		return fmt.Errorf("%v %w", v, errNotPositive)
	}

	return nil
}

// LoadConfig reads the MQ3_* environment variables.
func LoadConfig(ctx context.Context) (Config, error) {
	warmup, err := envutil.Duration(ctx, "MQ3_WARMUP",
		envutil.Default(DefaultWarmup),
		envutil.Validate(positive[time.Duration])).Value()
	if err != nil {
		return Config{}, err
	}

	steps, err := envutil.Int[int32](ctx, "MQ3_CALIBRATION_STEPS",
		envutil.Default[int32](DefaultCalibrationSteps),
		envutil.Validate(positive[int32])).Value()
	if err != nil {
		return Config{}, err
	}

	threshold, err := envutil.Float64(ctx, "MQ3_CALIBRATION_THRESHOLD",
		envutil.Default(DefaultThreshold),
		envutil.Validate(positive[float64])).Value()
	if err != nil {
		return Config{}, err
	}

	attempts, err := envutil.Int[int32](ctx, "MQ3_SAVE_ATTEMPTS",
		envutil.Default[int32](DefaultSaveAttempts),
		envutil.Validate(positive[int32])).Value()
	if err != nil {
		return Config{}, err
	}

	table, err := envutil.String(ctx, "MQ3_TABLE", envutil.Default("")).Value()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Warmup:           warmup,
		CalibrationSteps: steps,
		Threshold:        threshold,
		SaveAttempts:     attempts,
		TablePath:        table,
	}.withDefaults(), nil
}
