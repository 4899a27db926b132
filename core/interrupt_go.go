//go:build !tinygo

package core

import "sync/atomic"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// isrDepth counts nested RunInterrupt calls on the host build
var isrDepth int32

// disableInterrupts is a no-op on regular Go (for testing)
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is a no-op on regular Go (for testing)
func restoreInterrupts(state State) {
	// No-op
}

// InInterrupt reports whether the caller is running an interrupt handler
func InInterrupt() bool {
	return atomic.LoadInt32(&isrDepth) > 0
}

// RunInterrupt calls handler as if it had been dispatched by the interrupt
// controller. Host builds use it to drive tick handlers from tests and
// simulators; InInterrupt reports true for the duration of the call.
func RunInterrupt(handler func()) {
	atomic.AddInt32(&isrDepth, 1)
	defer atomic.AddInt32(&isrDepth, -1)
	handler()
}
