package mq3app

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amp-labs/amp-tfsm/envutil"
	"github.com/amp-labs/amp-tfsm/sensor"
	"github.com/amp-labs/amp-tfsm/tfsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(t.Context())
	require.NoError(t, err)

	assert.Equal(t, DefaultWarmup, cfg.Warmup)
	assert.Equal(t, int32(DefaultCalibrationSteps), cfg.CalibrationSteps)
	assert.InDelta(t, DefaultThreshold, cfg.Threshold, 0)
	assert.InDelta(t, DefaultWarmupVolts, cfg.WarmupVolts, 0)
	assert.Equal(t, int32(DefaultSaveAttempts), cfg.SaveAttempts)
	assert.Equal(t, DefaultSaveBackoff, cfg.SaveBackoff)
	assert.Empty(t, cfg.TablePath)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Parallel()

	ctx := envutil.WithEnvOverride(t.Context(), "MQ3_WARMUP", "90s")
	ctx = envutil.WithEnvOverride(ctx, "MQ3_CALIBRATION_STEPS", "50")
	ctx = envutil.WithEnvOverride(ctx, "MQ3_CALIBRATION_THRESHOLD", "2.5")
	ctx = envutil.WithEnvOverride(ctx, "MQ3_SAVE_ATTEMPTS", "5")
	ctx = envutil.WithEnvOverride(ctx, "MQ3_TABLE", "/etc/mq3/table.yaml")

	cfg, err := LoadConfig(ctx)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Warmup)
	assert.Equal(t, int32(50), cfg.CalibrationSteps)
	assert.InDelta(t, 2.5, cfg.Threshold, 0)
	assert.Equal(t, int32(5), cfg.SaveAttempts)
	assert.Equal(t, "/etc/mq3/table.yaml", cfg.TablePath)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value string
	}{
		{"MQ3_WARMUP", "-1s"},
		{"MQ3_CALIBRATION_STEPS", "0"},
		{"MQ3_CALIBRATION_THRESHOLD", "abc"},
		{"MQ3_CALIBRATION_THRESHOLD", "-0.5"},
		{"MQ3_CALIBRATION_THRESHOLD", "NaN"},
		{"MQ3_CALIBRATION_THRESHOLD", "+Inf"},
		{"MQ3_SAVE_ATTEMPTS", "-2"},
	}

	for _, tt := range tests {
		_, err := LoadConfig(envutil.WithEnvOverride(t.Context(), tt.key, tt.value))
		require.ErrorIs(t, err, envutil.ErrBadEnvVar, "%s=%s", tt.key, tt.value)
	}
}

func TestNonFiniteThresholdFallsBackToDefault(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{math.NaN(), math.Inf(1), -1} {
		cfg := Config{Threshold: v, WarmupVolts: v}.withDefaults()
		assert.InDelta(t, DefaultThreshold, cfg.Threshold, 0, "%v", v)
		assert.InDelta(t, DefaultWarmupVolts, cfg.WarmupVolts, 0, "%v", v)
	}
}

func TestEmbeddedTable(t *testing.T) {
	t.Parallel()

	table, err := LoadTable("")
	require.NoError(t, err)

	applyOverrides(table, Config{}.withDefaults())

	names := make([]string, 0, len(table.States))
	for _, st := range table.States {
		names = append(names, st.Name)
	}

	assert.Equal(t, []string{
		StateInitWarmup, StateRunWarmup, StateConfig, StateCalibrate, StateVerify, StateMain, StateReset,
	}, names)
	assert.Equal(t, int32(24*60*60+1), table.States[1].Steps)
	assert.Equal(t, int32(DefaultCalibrationSteps), table.States[3].Steps)
	assert.NotZero(t, table.Fingerprint)
}

func TestResetCycleIsClamped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{}, sensor.FixedADC(120), nil)

	for _, st := range f.ctrl.Engine().Table() {
		assert.LessOrEqual(t, st.CyclePeriod, tfsm.DefaultMaxCyclePeriod, st.Name)
	}
}

func TestCustomTablePath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: bench
states:
  - name: MAIN
    cycle: 500ms
    steps: 1
    primary: MAIN
    alternate: RESET
    action: measure
  - name: RESET
    cycle: 1s
    steps: 1
    primary: RESET
    action: reset
`), 0o600))

	f := newFixture(t, Config{TablePath: path}, sensor.FixedADC(120), nil)

	assert.Equal(t, "bench", f.ctrl.Engine().Name())
	assert.Equal(t, 500*time.Millisecond, f.ctrl.Engine().CyclePeriod())

	engine := f.ctrl.Engine()

	engine.Run()
	assert.Equal(t, StateMain, engine.CurrentName())
	assert.True(t, engine.AlternateRequested())

	engine.Run()
	assert.Equal(t, StateReset, engine.CurrentName())
	assert.Equal(t, "not calibrated", engine.CurrentArgument().String())
}
