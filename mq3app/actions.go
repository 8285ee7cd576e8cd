package mq3app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/amp-labs/amp-tfsm/calibration"
	"github.com/amp-labs/amp-tfsm/calibstore"
	"github.com/amp-labs/amp-tfsm/retry"
	"github.com/amp-labs/amp-tfsm/sensor"
	"github.com/amp-labs/amp-tfsm/tfsm"
)

// fault sends the machine to the alternate successor of the active state on
// the next Run, carrying reason into it.
func (c *Controller) fault(reason string, err error) {
	state := c.engine.CurrentName()

	faultsTotal.WithLabelValues(state).Inc()
	c.logger.ErrorContext(c.ctx, "Fault, leaving state", "state", state, "reason", reason, "error", err)

	c.engine.SetAll(tfsm.SetAllRequest{
		Argument:  truncateReason(reason, tfsm.HeldArgumentCapacity),
		Alternate: true,
		Force:     true,
	})
}

// truncateReason cuts reason to at most limit bytes without splitting a rune.
func truncateReason(reason string, limit int) []byte {
	msg := []byte(reason)
	if len(msg) <= limit {
		return msg
	}

	n := limit
	for n > 0 && !utf8.RuneStart(msg[n]) {
		n--
	}

	return msg[:n]
}

func (c *Controller) initWarmup() {
	c.logger.InfoContext(c.ctx, "Warming up", "period", c.cfg.Warmup)
	c.display.Show(0, "Warming up")
}

func (c *Controller) runWarmup() {
	// The counter is decremented after the action, so this is the time left
	// once the current second is over.
	timer := int64(c.engine.RemainingSteps()) - 1
	hours := timer / 3600
	minutes := (timer % 3600) / 60
	seconds := timer % 60

	c.display.Show(1, fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds))

	every := int64(c.cfg.WarmupCheckEvery)
	if timer%every != every-1 {
		return
	}

	meas, err := c.sensor.Measure()
	if err != nil {
		c.fault("warm-up read failed", err)

		return
	}

	c.logger.DebugContext(c.ctx, "Warm-up check", "volts", meas.Volts, "remaining", timer)

	if meas.Volts < c.cfg.WarmupVolts {
		c.logger.InfoContext(c.ctx, "Warm-up OK", "volts", meas.Volts)
		c.display.Show(0, fmt.Sprintf("Warmup OK %.2fV", meas.Volts))

		c.engine.SetDelay(c.cfg.WarmupHold)
		c.engine.ForceTransition()
	}
}

func (c *Controller) loadConfig() {
	if c.store != nil {
		rec, err := c.store.Latest(c.ctx)

		switch {
		case err == nil && sensor.ValidR0(rec.R0):
			c.setR0(rec.R0)
			c.logger.InfoContext(c.ctx, "Loaded configuration",
				"r0", rec.R0, "precision", rec.Precision, "id", rec.ID)
			c.display.Show(0, "Loaded Config.")
			c.display.Show(1, fmt.Sprintf("R0: %.0f E: %.2f%%", rec.R0, rec.Precision))

			return
		case err == nil:
			c.logger.WarnContext(c.ctx, "Loaded configuration is invalid", "r0", rec.R0, "id", rec.ID)
			c.display.Show(0, "Config. invalid")
		case errors.Is(err, calibstore.ErrNotFound):
			c.logger.InfoContext(c.ctx, "No configuration found")
		default:
			c.logger.ErrorContext(c.ctx, "Failed to read configuration", "error", err)
		}
	}

	c.display.Show(1, "No config. found")
	c.engine.RequestAlternateTransition()
	c.acc.Clear()
}

func (c *Controller) calibrate() {
	step := c.cfg.CalibrationSteps - c.engine.RemainingSteps() + 1

	meas, r0, err := c.sensor.EstimateR0()
	if err != nil {
		c.fault("calibration read failed", err)

		return
	}

	c.acc.AddSample(r0)

	c.logger.DebugContext(c.ctx, "Calibration sample",
		"step", step, "raw", meas.Raw, "volts", meas.Volts, "r0", r0)
	c.display.Show(0, "Calibrating... Keep MQ3 in clean air!")
	c.display.Show(1, fmt.Sprintf("R0: %-5.0f %3d/%d", r0, step, c.cfg.CalibrationSteps))
}

func (c *Controller) verify() {
	res, err := c.acc.Evaluate(c.cfg.Threshold)
	if err != nil {
		c.logger.WarnContext(c.ctx, "Nothing to verify", "error", err)
		c.display.Show(0, "No samples")
		c.engine.RequestAlternateTransition()

		return
	}

	if !res.Accepted {
		c.logger.WarnContext(c.ctx, "Calibration rejected",
			"reason", res.Reason, "precision", res.Precision, "mean", res.Mean, "samples", res.Samples)
		c.display.Show(0, "Error too high!")
		c.display.Show(1, fmt.Sprintf("Error: %.2f%%", res.Precision))
		c.engine.RequestAlternateTransition()

		return
	}

	c.setR0(res.Mean)
	c.logger.InfoContext(c.ctx, "Calibrated", "r0", res.Mean, "precision", res.Precision)
	c.display.Show(0, fmt.Sprintf("Calibrated %.1f%%", res.Precision))
	c.display.Show(1, fmt.Sprintf("R0: %.2f", res.Mean))

	c.persist(res)
	c.acc.Clear()
}

const maxSaveBackoff = 5 * time.Second

func (c *Controller) persist(res calibration.Result) {
	if c.store == nil {
		return
	}

	rec := calibstore.Record{
		R0:               res.Mean,
		Precision:        res.Precision,
		Samples:          res.Samples,
		TableFingerprint: c.table.Fingerprint,
	}

	save := func() {
		saved, err := retry.DoValue(c.ctx, func(ctx context.Context) (calibstore.Record, error) {
			return c.store.Save(ctx, rec)
		},
			retry.WithAttempts(retry.Attempts(c.cfg.SaveAttempts)), //nolint:gosec // positive
			retry.WithBackoff(retry.ExpBackoff{Base: c.cfg.SaveBackoff, Max: maxSaveBackoff, Factor: 2}),
			retry.OnRetry(func(attempt uint, err error) {
				savesTotal.WithLabelValues("retry").Inc()
				c.logger.WarnContext(c.ctx, "Retrying calibration save", "attempt", attempt, "error", err)
			}),
		)
		if err != nil {
			savesTotal.WithLabelValues("error").Inc()
			c.logger.ErrorContext(c.ctx, "Failed to save calibration", "error", err)

			return
		}

		savesTotal.WithLabelValues("success").Inc()
		c.logger.InfoContext(c.ctx, "Saved calibration", "id", saved.ID)
	}

	if c.workers == nil {
		save()

		return
	}

	if err := c.workers.Go(save); err != nil {
		savesTotal.WithLabelValues("error").Inc()
		c.logger.ErrorContext(c.ctx, "Failed to schedule calibration save", "error", err)
	}
}

func (c *Controller) measure() {
	meas, err := c.sensor.Measure()
	if err != nil {
		c.fault(err.Error(), err)

		return
	}

	mgL, err := sensor.Concentration(meas.RS, c.R0())
	if err != nil || math.IsNaN(mgL) || math.IsInf(mgL, 0) {
		c.fault("not calibrated", err)

		return
	}

	c.mut.Lock()
	c.lastReading = mgL
	c.mut.Unlock()

	concentration.Set(mgL)

	c.logger.DebugContext(c.ctx, "Reading", "raw", meas.Raw, "volts", meas.Volts, "mg_per_l", mgL)
	c.display.Show(0, fmt.Sprintf("%.2f mg/L", mgL))
}

func (c *Controller) reset(arg tfsm.Argument) {
	c.logger.ErrorContext(c.ctx, "Unexpected error, waiting for a restart", "reason", arg.String())
	c.display.Show(0, "Unexpected error")

	if arg.IsEmpty() {
		c.display.Show(1, "Resetting...")
	} else {
		c.display.Show(1, arg.String())
	}
}
