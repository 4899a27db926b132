package core

import "sync/atomic"

// criticalNesting counts open critical sections (diagnostics only)
var criticalNesting int32

// Critical is a scoped critical-section guard. Interrupts stay masked from
// EnterCritical until Exit, which is safe to call more than once:
//
//	cs := EnterCritical()
//	defer cs.Exit()
type Critical struct {
	state  State
	active bool
}

// EnterCritical masks interrupts and returns the guard that restores them.
// Sections nest; each guard restores the mask it saved.
func EnterCritical() Critical {
	state := disableInterrupts()
	atomic.AddInt32(&criticalNesting, 1)
	return Critical{state: state, active: true}
}

// Exit restores the interrupt state saved by EnterCritical
func (c *Critical) Exit() {
	if !c.active {
		return
	}
	c.active = false
	atomic.AddInt32(&criticalNesting, -1)
	restoreInterrupts(c.state)
}

// InCritical reports whether any critical section is open
func InCritical() bool {
	return atomic.LoadInt32(&criticalNesting) > 0
}
