// Package kernel binds the core's Scheduler interface onto the Go runtime.
//
// Every task is a goroutine, but only the task holding the CPU runs: the
// kernel hands the CPU from task to task at kernel calls (Delay, Yield,
// Delete, Create) and always picks the highest-priority ready task. The
// tick interrupt only advances the tick counter; tasks it makes ready are
// switched in at the next kernel call or by the idle loop. The same code
// runs under TinyGo's cooperative scheduler and on the host for tests.
package kernel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"dualtick/core"
)

var (
	ErrTaskTableFull     = errors.New("kernel: task table full")
	ErrAlreadyRegistered = errors.New("kernel: control block already registered")
	ErrNilEntry          = errors.New("kernel: nil task entry")
)

const (
	// stackFill marks unused stack words, as the C kernels paint them
	stackFill = 0xA5A5A5A5

	// maxBlockTicks is how long the timer service sleeps with nothing pending
	maxBlockTicks = 1 << 30

	// DefaultIdlePoll is how often the idle loop looks for woken tasks
	DefaultIdlePoll = 100 * time.Microsecond
)

// port is the kernel's private part of a control block
type port struct {
	entry   core.TaskFunc
	wake    chan struct{}
	exited  bool
	service bool
}

// Kernel is a priority scheduler for statically allocated tasks
type Kernel struct {
	mu       sync.Mutex
	state    uint32 // core.SchedulerState
	tick     uint32
	tasks    [core.MaxTasks + 1]*core.ControlBlock
	running  *core.ControlBlock
	rr       int // Round-robin start among equal priorities
	idle     *core.ControlBlock
	timerSvc *core.ControlBlock
	timers   core.TimerList
	idlePoll time.Duration
	stop     chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup // Task goroutines
}

// New creates a kernel in the not-started state
func New() *Kernel {
	return &Kernel{
		idlePoll: DefaultIdlePoll,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetIdlePoll sets how often the idle loop checks for woken tasks
func (k *Kernel) SetIdlePoll(d time.Duration) {
	k.idlePoll = d
}

// State reports whether the kernel is running
func (k *Kernel) State() core.SchedulerState {
	return core.SchedulerState(atomic.LoadUint32(&k.state))
}

// TickCount returns the scheduler tick counter
func (k *Kernel) TickCount() uint32 {
	return atomic.LoadUint32(&k.tick)
}

// Tick advances the scheduler tick. It is the tick interrupt hand-off and
// touches nothing but the counter.
func (k *Kernel) Tick() {
	atomic.AddUint32(&k.tick, 1)
}

// TickHook returns the function the tick interrupt must call
func (k *Kernel) TickHook() func() {
	return k.Tick
}

// Current returns the task holding the CPU
func (k *Kernel) Current() *core.ControlBlock {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// Create registers a task. A ready task of higher priority than the caller
// takes the CPU straight away unless a critical section is open. Once the
// kernel runs, Create must be called from a task.
func (k *Kernel) Create(entry core.TaskFunc, cb *core.ControlBlock, stack []core.StackWord) error {
	k.mu.Lock()
	p, err := k.registerLocked(entry, cb, stack, false)
	preempt := err == nil && k.preemptPendingLocked() && !core.InCritical()
	k.mu.Unlock()
	if err != nil {
		return err
	}

	k.wg.Add(1)
	go k.run(cb, p)
	if preempt {
		k.Yield()
	}
	return nil
}

func (k *Kernel) registerLocked(entry core.TaskFunc, cb *core.ControlBlock, stack []core.StackWord, service bool) (*port, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}
	free := -1
	for i, t := range k.tasks {
		if t == cb && t.State() != core.TaskDeleted {
			return nil, ErrAlreadyRegistered
		}
		if free < 0 && (t == nil || t.State() == core.TaskDeleted) {
			free = i
		}
	}
	if free < 0 {
		return nil, ErrTaskTableFull
	}

	for i := range stack {
		stack[i] = stackFill
	}
	p := &port{
		entry:   entry,
		wake:    make(chan struct{}, 1),
		service: service,
	}
	cb.Port = p
	cb.SetState(core.TaskReady)
	k.tasks[free] = cb
	return p, nil
}

// preemptPendingLocked reports whether a ready task outranks the running one
func (k *Kernel) preemptPendingLocked() bool {
	if k.State() != core.SchedulerRunning || k.running == nil {
		return false
	}
	for _, cb := range k.tasks {
		if cb != nil && cb.State() == core.TaskReady && cb.Priority > k.running.Priority {
			return true
		}
	}
	return false
}

// run is the goroutine body of every task. p is the port handed out at
// registration; cb.Port is not read again here.
func (k *Kernel) run(cb *core.ControlBlock, p *port) {
	defer k.wg.Done()
	defer k.exit(cb, p)

	<-p.wake
	if cb.State() == core.TaskDeleting {
		return
	}
	p.entry()
}

// exit runs when a task goroutine ends, whether its entry returned or it
// was deleted. The idle loop reclaims its memory afterwards.
func (k *Kernel) exit(cb *core.ControlBlock, p *port) {
	k.mu.Lock()
	defer k.mu.Unlock()

	p.exited = true
	cb.SetState(core.TaskDeleting)
	if k.running == cb {
		k.running = nil
		k.dispatchLocked()
	}
}

// Delete removes a task from the ready set. Deleting the calling task
// does not return. Service tasks and already deleted tasks are ignored.
func (k *Kernel) Delete(cb *core.ControlBlock) {
	k.mu.Lock()
	p, ok := cb.Port.(*port)
	if !ok || p.service || !cb.State().Live() {
		k.mu.Unlock()
		return
	}

	cb.SetState(core.TaskDeleting)
	if k.running == cb {
		k.running = nil
		k.dispatchLocked()
		k.mu.Unlock()
		runtime.Goexit()
	}

	// Wake the parked goroutine so it can exit
	signal(p)
	k.mu.Unlock()
}

// Delay blocks the calling task for ticks scheduler ticks. Zero ticks
// yields to other ready tasks of the same or higher priority.
func (k *Kernel) Delay(ticks uint32) {
	k.mu.Lock()
	k.delayLocked(ticks)
}

// delayLocked does the work of Delay and releases k.mu
func (k *Kernel) delayLocked(ticks uint32) {
	cb := k.running
	if cb == nil {
		k.mu.Unlock()
		return
	}

	if cb.State() == core.TaskDeleting {
		k.running = nil
		k.dispatchLocked()
		k.mu.Unlock()
		runtime.Goexit()
	}

	if ticks == 0 {
		cb.SetState(core.TaskReady)
	} else {
		cb.WakeTick = k.TickCount() + ticks
		cb.SetState(core.TaskBlocked)
	}
	k.running = nil
	k.dispatchLocked()
	k.mu.Unlock()

	k.park(cb)
}

// Yield gives the CPU to any ready task of equal or higher priority
func (k *Kernel) Yield() {
	k.Delay(0)
}

// park waits until the task is dispatched again
func (k *Kernel) park(cb *core.ControlBlock) {
	p := cb.Port.(*port)
	<-p.wake
	if cb.State() == core.TaskDeleting {
		runtime.Goexit()
	}
}

// dispatchLocked hands the CPU to the highest-priority ready task. The CPU
// must be free (k.running == nil).
func (k *Kernel) dispatchLocked() {
	if k.State() != core.SchedulerRunning {
		return
	}

	now := k.TickCount()
	best := -1
	n := len(k.tasks)
	for i := 0; i < n; i++ {
		idx := (k.rr + i) % n
		cb := k.tasks[idx]
		if cb == nil {
			continue
		}
		switch cb.State() {
		case core.TaskBlocked:
			if int32(now-cb.WakeTick) < 0 {
				continue
			}
			cb.SetState(core.TaskReady)
		case core.TaskReady:
		default:
			continue
		}
		if best < 0 || cb.Priority > k.tasks[best].Priority {
			best = idx
		}
	}

	if best < 0 {
		if k.idle != nil {
			k.idle.SetState(core.TaskRunning)
		}
		return
	}
	if k.idle != nil {
		k.idle.SetState(core.TaskReady)
	}

	cb := k.tasks[best]
	k.rr = (best + 1) % n
	cb.SetState(core.TaskRunning)
	k.running = cb
	signal(cb.Port.(*port))
}

func signal(p *port) {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start runs the scheduler. The calling goroutine becomes the idle task and
// Start only returns after Stop.
func (k *Kernel) Start() {
	k.mu.Lock()
	if k.State() != core.SchedulerNotStarted {
		k.mu.Unlock()
		return
	}

	idle, timer := core.ServiceMemory()
	k.idle = idle.Control
	for i := range idle.Stack {
		idle.Stack[i] = stackFill
	}
	p, err := k.registerLocked(k.timerService, timer.Control, timer.Stack, true)
	if err != nil {
		k.mu.Unlock()
		core.Halt(&core.ConfigError{Reason: "timer service: " + err.Error()})
	}
	k.timerSvc = timer.Control
	k.wg.Add(1)
	go k.run(timer.Control, p)

	atomic.StoreUint32(&k.state, uint32(core.SchedulerRunning))
	k.dispatchLocked()
	k.mu.Unlock()

	k.idleLoop()
}

// idleLoop switches in woken tasks whenever the CPU is free and reclaims
// the memory of tasks whose goroutines have ended.
func (k *Kernel) idleLoop() {
	defer close(k.done)
	for {
		select {
		case <-k.stop:
			return
		default:
		}

		k.mu.Lock()
		if k.running == nil {
			k.dispatchLocked()
		}
		k.reclaimLocked()
		k.mu.Unlock()

		time.Sleep(k.idlePoll)
	}
}

func (k *Kernel) reclaimLocked() {
	for i, cb := range k.tasks {
		if cb == nil || cb.State() != core.TaskDeleting {
			continue
		}
		if p, ok := cb.Port.(*port); ok && p.exited {
			cb.SetState(core.TaskDeleted)
			k.tasks[i] = nil
		}
	}
}

// Stop deletes every task, ends the idle loop and waits for every task
// goroutine to end. The running task, if any, exits at its next kernel call.
func (k *Kernel) Stop() {
	k.mu.Lock()
	if k.State() != core.SchedulerRunning {
		k.mu.Unlock()
		return
	}
	atomic.StoreUint32(&k.state, uint32(core.SchedulerSuspended))
	for _, cb := range k.tasks {
		if cb == nil || !cb.State().Live() {
			continue
		}
		cb.SetState(core.TaskDeleting)
		if cb != k.running {
			signal(cb.Port.(*port))
		}
	}
	k.mu.Unlock()

	close(k.stop)
	<-k.done
	k.wg.Wait()

	k.mu.Lock()
	k.reclaimLocked()
	k.mu.Unlock()
}

// ScheduleTimer queues a soft timer on the timer service task
func (k *Kernel) ScheduleTimer(t *core.SoftTimer) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.timers.Schedule(t)
	if svc := k.timerSvc; svc != nil && svc.State() == core.TaskBlocked && int32(t.WakeTick-svc.WakeTick) < 0 {
		svc.WakeTick = t.WakeTick
	}
}

// CancelTimer removes a pending soft timer
func (k *Kernel) CancelTimer(t *core.SoftTimer) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.timers.Cancel(t)
}

// timerService is the entry of the reserved timer service task. The list
// is guarded by k.mu; handlers run without it so they may call the kernel.
func (k *Kernel) timerService() {
	for {
		k.timers.Dispatch(k.TickCount(), &k.mu)
		k.timerWait()
	}
}

// timerWait blocks the timer service until the earliest pending timer is
// due. ScheduleTimer either sees the service blocked or the service sees
// the new timer.
func (k *Kernel) timerWait() {
	k.mu.Lock()
	wait := uint32(maxBlockTicks)
	if next, ok := k.timers.NextWake(); ok {
		wait = next - k.TickCount()
		if int32(wait) <= 0 {
			k.mu.Unlock()
			return
		}
	}
	k.delayLocked(wait)
}

// TaskInfo is a snapshot of one registered task
type TaskInfo struct {
	Name     string
	Priority core.Priority
	State    core.TaskState
	Service  bool
}

// Tasks returns a snapshot of every registered task
func (k *Kernel) Tasks() []TaskInfo {
	k.mu.Lock()
	defer k.mu.Unlock()

	var out []TaskInfo
	for _, cb := range k.tasks {
		if cb == nil {
			continue
		}
		p, _ := cb.Port.(*port)
		out = append(out, TaskInfo{
			Name:     cb.Name,
			Priority: cb.Priority,
			State:    cb.State(),
			Service:  p != nil && p.service,
		})
	}
	return out
}

// LiveTasks counts live application tasks, leaving out service tasks
func (k *Kernel) LiveTasks() int {
	n := 0
	for _, t := range k.Tasks() {
		if !t.Service && t.State.Live() {
			n++
		}
	}
	return n
}
