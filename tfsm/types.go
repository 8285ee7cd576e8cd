package tfsm

import "time"

// DefaultMaxCyclePeriod caps State.CyclePeriod unless WithMaxCyclePeriod says otherwise.
const DefaultMaxCyclePeriod = 7000 * time.Millisecond

// State is one row of the state table.
type State struct {
	Name string
	// CyclePeriod is how long the driver should wait between Run calls while
	// this state is active. The engine never sleeps on it.
	CyclePeriod time.Duration
	// Steps is the number of action invocations before the state is exhausted.
	Steps int32
	// Delay is the number of extra Run calls after Steps reaches zero.
	Delay     int32
	Primary   int
	Alternate int
	Action    Callback
	Argument  Argument
	// OnDelay fires once, when Delay reaches zero, or as a flush just before
	// the transition if it has not fired yet.
	OnDelay Callback
}

// SetAllRequest bundles the mutators used by fault handlers. Fields are
// applied in declaration order; zero values are skipped.
type SetAllRequest struct {
	Argument  []byte
	Alternate bool
	Delay     int32
	Force     bool
}
