package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown marks the process as draining. The health handler reports
// 503 once set so load balancers stop routing new traffic.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether graceful shutdown has started.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
