package core

import "sync/atomic"

// SchedulerState mirrors the external scheduler's run state
type SchedulerState uint8

const (
	SchedulerNotStarted SchedulerState = iota
	SchedulerRunning
	SchedulerSuspended
)

// TaskState is the lifecycle state stored in a control block. Everything
// between TaskReady and TaskBlocked is owned by the scheduler.
type TaskState uint32

const (
	TaskUncreated TaskState = iota
	TaskReady
	TaskRunning
	TaskBlocked
	TaskDeleting // Removed from the ready set, stack not yet reclaimed
	TaskDeleted  // Scheduler no longer references the memory
)

// Live reports whether the scheduler still considers the task schedulable
func (s TaskState) Live() bool {
	return s == TaskReady || s == TaskRunning || s == TaskBlocked
}

func (s TaskState) String() string {
	switch s {
	case TaskUncreated:
		return "uncreated"
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskBlocked:
		return "blocked"
	case TaskDeleting:
		return "deleting"
	case TaskDeleted:
		return "deleted"
	}
	return "unknown"
}

// Priority orders tasks; larger values preempt smaller ones
type Priority uint8

// StackWord is one word of a statically allocated task stack
type StackWord uint32

// TaskFunc is a task entry point. Returning from it deletes the task.
type TaskFunc func()

// ControlBlock is the statically allocated per-task record handed to the
// scheduler. The scheduler owns every field while the task is live.
type ControlBlock struct {
	Name     string
	Priority Priority
	WakeTick uint32 // Tick at which a blocked task becomes ready

	// Port is reserved for the scheduler binding's private bookkeeping
	Port interface{}

	state uint32
}

// State returns the task state
func (cb *ControlBlock) State() TaskState {
	return TaskState(atomic.LoadUint32(&cb.state))
}

// SetState is called by the scheduler as the task moves between states
func (cb *ControlBlock) SetState(s TaskState) {
	atomic.StoreUint32(&cb.state, uint32(s))
}

// reset prepares a control block for a fresh registration
func (cb *ControlBlock) reset(name string, prio Priority) {
	if len(name) > MaxTaskNameLen-1 {
		name = name[:MaxTaskNameLen-1]
	}
	cb.Name = name
	cb.Priority = prio
	cb.WakeTick = 0
	cb.Port = nil
	cb.SetState(TaskUncreated)
}

// Scheduler is the external priority-preemptive scheduler consumed by the
// core. Implementations supply task switching and ready-queue management.
type Scheduler interface {
	// Create registers a task whose control block and stack are owned by
	// the caller. The task becomes ready; it does not run inside Create.
	Create(entry TaskFunc, cb *ControlBlock, stack []StackWord) error

	// Delete removes cb from the ready set. When cb is the calling task
	// Delete does not return.
	Delete(cb *ControlBlock)

	// Delay blocks the calling task for the given number of ticks
	Delay(ticks uint32)

	// State reports whether the scheduler has started
	State() SchedulerState

	// Current returns the running task, or nil outside task context
	Current() *ControlBlock

	// TickCount returns the scheduler's own tick counter
	TickCount() uint32

	// TickHook returns the function the scheduler tick interrupt must call
	TickHook() func()
}

// Global singleton used by core code.
var scheduler Scheduler

// SetScheduler is called by board code to bind the external scheduler.
func SetScheduler(s Scheduler) {
	scheduler = s
}

// MustScheduler returns the bound scheduler or halts if none is bound.
func MustScheduler() Scheduler {
	if scheduler == nil {
		Halt(configError("scheduler not bound"))
	}
	return scheduler
}
