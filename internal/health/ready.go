package health

import "sync/atomic"

// draining is set while the process is shutting down so load balancers stop
// routing new work before in-flight requests finish. The zero value means
// the service is ready.
var draining atomic.Bool

// SetReady flips the global readiness gate.
func SetReady(v bool) {
	draining.Store(!v)
}

// IsReady reports the current readiness gate state.
func IsReady() bool {
	return !draining.Load()
}
