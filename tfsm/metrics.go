package tfsm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	phaseStep       = "step"
	phaseDelay      = "delay"
	phaseTransition = "transition"

	branchPrimary   = "primary"
	branchAlternate = "alternate"

	triggerElapsed = "elapsed"
	triggerFlush   = "flush"
)

var (
	// runsTotal counts Run calls by the phase they landed in.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tfsm_runs_total",
		Help: "Total number of Run calls by machine and phase (step, delay or transition)",
	}, []string{"machine", "phase"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tfsm_transitions_total",
		Help: "Total number of state transitions by machine, from_state, to_state and branch",
	}, []string{"machine", "from_state", "to_state", "branch"})

	delayCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tfsm_delay_callbacks_total",
		Help: "Total number of delay callbacks fired, by trigger (elapsed or flush)",
	}, []string{"machine", "state", "trigger"})

	reentrantRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tfsm_reentrant_runs_total",
		Help: "Total number of Run calls ignored because a callback called Run",
	}, []string{"machine"})

	activeState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tfsm_active_state_index",
		Help: "Table index of the active state",
	}, []string{"machine"})
)
