package engine

import "sync"

// State represents the engine's position in its computation cycle.
type State int

const (
	// Idle means no computation is in flight.
	Idle State = iota
	// Computing means a cycle is running and re-entrant invokes are rejected.
	Computing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Computing:
		return "computing"
	default:
		return "unknown"
	}
}

// guard converts re-entrant recomputation requests into a bounded, single
// in-flight computation. The host environment can synchronously re-invoke the
// engine from a callback fired by the engine's own side effects; without this
// flag that feedback loop recurses without bound.
type guard struct {
	mu    sync.Mutex
	state State
}

// begin transitions Idle → Computing. It returns false when a cycle is
// already in flight, in which case the caller must not start a second pass.
func (g *guard) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Computing {
		return false
	}
	g.state = Computing
	return true
}

// end returns the guard to Idle. Safe to call from a deferred statement on
// both the success and failure paths.
func (g *guard) end() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Idle
}

// current reports the guard state, for logging and tests.
func (g *guard) current() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
