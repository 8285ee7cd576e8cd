package mq3app

import (
	"embed"
	"math"
	"time"

	"github.com/amp-labs/amp-tfsm/tfsm"
)

// State names used by the breathalyzer table.
const (
	StateInitWarmup = "INIT_WARMUP"
	StateRunWarmup  = "RUN_WARMUP"
	StateConfig     = "CONFIG"
	StateCalibrate  = "CALIBRATE"
	StateVerify     = "VERIFY"
	StateMain       = "MAIN"
	StateReset      = "RESET"
)

// Callback names referenced from table.yaml.
const (
	callbackInitWarmup   = "initWarmup"
	callbackRunWarmup    = "runWarmup"
	callbackConfig       = "config"
	callbackCalibrate    = "calibrate"
	callbackVerify       = "verify"
	callbackMeasure      = "measure"
	callbackReset        = "reset"
	callbackClearDisplay = "clearDisplay"
)

//go:embed table.yaml
var tableFS embed.FS

// LoadTable returns the table description: the file at path, or the embedded
// table when path is empty.
func LoadTable(path string) (*tfsm.Config, error) {
	if path != "" {
		return tfsm.LoadConfig(path)
	}

	return tfsm.LoadConfigFromFS(tableFS, "table.yaml")
}

// applyOverrides sizes the warm-up and calibration states from cfg. States
// missing from a custom table are left alone.
func applyOverrides(table *tfsm.Config, cfg Config) {
	for i := range table.States {
		st := &table.States[i]

		switch st.Name {
		case StateRunWarmup:
			cycle := st.Cycle
			if cycle <= 0 {
				cycle = time.Second
			}

			steps := min(int64(cfg.Warmup/cycle), math.MaxInt32-1)
			st.Steps = int32(steps) + 1 //nolint:gosec // bounded above
		case StateCalibrate:
			st.Steps = cfg.CalibrationSteps
		}
	}
}
