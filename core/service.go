package core

import "sync"

// ServiceBlock is the static memory of one scheduler service task
type ServiceBlock struct {
	Control *ControlBlock
	Stack   []StackWord
}

// Reserved memory for the scheduler's idle and timer service tasks. These
// are never created by application code and never deleted.
var (
	idleTaskTCB    ControlBlock
	idleTaskStack  [IdleTaskStackDepth]StackWord
	timerTaskTCB   ControlBlock
	timerTaskStack [TimerTaskStackDepth]StackWord

	serviceOnce sync.Once
)

// ServiceMemory returns the idle and timer service memory. The blocks are
// set up on the first call; every call returns the same storage.
func ServiceMemory() (idle, timer ServiceBlock) {
	serviceOnce.Do(func() {
		idleTaskTCB.reset("IDLE", 0)
		timerTaskTCB.reset("Tmr Svc", MaxPriorities-1)
	})
	return ServiceBlock{Control: &idleTaskTCB, Stack: idleTaskStack[:]},
		ServiceBlock{Control: &timerTaskTCB, Stack: timerTaskStack[:]}
}
