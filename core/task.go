package core

// Handle refers to a created task. It packs the arena slot (low 8 bits,
// offset by one) and the slot's generation (upper 24 bits), so a copy kept
// after the task was deleted is detected as stale even if the slot has been
// reused. The zero value is the empty handle.
type Handle uint32

// NilHandle is the empty handle
const NilHandle Handle = 0

const generationMask = 0xFFFFFF

func makeHandle(slot int, gen uint32) Handle {
	return Handle(gen<<8 | uint32(slot+1))
}

func (h Handle) slot() int {
	return int(h&0xFF) - 1
}

func (h Handle) generation() uint32 {
	return uint32(h) >> 8
}

// TaskDescriptor groups the static memory and parameters of one task.
// Stack and Control must point at package-level storage that no other
// descriptor shares.
type TaskDescriptor struct {
	Name     string
	Priority Priority
	Stack    []StackWord
	Control  *ControlBlock
	Handle   Handle
}

// taskSlot is one entry of the lifecycle arena
type taskSlot struct {
	cb   *ControlBlock
	gen  uint32
	used bool
}

// Lifecycle creates and deletes tasks on the external scheduler. It keeps
// an arena of fixed slots; a slot is handed out again only after the
// scheduler has marked its control block TaskDeleted.
type Lifecycle struct {
	sched         Scheduler
	slots         [MaxTasks]taskSlot
	maxPriorities uint8
}

// NewLifecycle creates a lifecycle manager bound to a scheduler
func NewLifecycle(s Scheduler, maxPriorities uint8) *Lifecycle {
	if maxPriorities == 0 {
		maxPriorities = MaxPriorities
	}
	return &Lifecycle{sched: s, maxPriorities: maxPriorities}
}

// Create registers a task backed by caller-owned stack and control block
// memory. Creation has no failure path: running out of slots, reusing a
// control block the scheduler has not released yet, or the scheduler
// refusing the task is a sizing error and halts.
func (lm *Lifecycle) Create(entry TaskFunc, name string, stack []StackWord, cb *ControlBlock, prio Priority) Handle {
	cs := EnterCritical()
	defer cs.Exit()

	lm.reclaim()
	if lm.slotOf(cb) >= 0 {
		// Deleted but not yet released by the scheduler's idle service
		Halt(configError("control block of " + name + " still in use"))
	}
	idx := lm.freeSlot()
	if idx < 0 {
		Halt(configError("task arena full creating " + name))
	}

	if uint8(prio) >= lm.maxPriorities {
		prio = Priority(lm.maxPriorities - 1)
	}
	cb.reset(name, prio)

	s := &lm.slots[idx]
	s.gen = (s.gen + 1) & generationMask
	if s.gen == 0 {
		s.gen = 1
	}
	s.cb = cb
	s.used = true

	if err := lm.sched.Create(entry, cb, stack); err != nil {
		s.used = false
		s.cb = nil
		Halt(configError("scheduler rejected " + name + ": " + err.Error()))
	}

	RecordEvent(EvtTaskCreate, uint8(idx), uint32(prio), uint32(len(stack)))
	DebugPrintln("[TASK] created " + cb.Name + " prio=" + itoa(int(prio)))
	return makeHandle(idx, s.gen)
}

// Spawn creates the task described by d and stores its handle in d.Handle
func (lm *Lifecycle) Spawn(d *TaskDescriptor, entry TaskFunc) Handle {
	d.Handle = lm.Create(entry, d.Name, d.Stack, d.Control, d.Priority)
	return d.Handle
}

// SpawnAll creates every descriptor inside one critical section so no task
// runs before the whole set exists.
func (lm *Lifecycle) SpawnAll(descs []*TaskDescriptor, entries []TaskFunc) {
	cs := EnterCritical()
	defer cs.Exit()
	for i, d := range descs {
		lm.Spawn(d, entries[i])
	}
}

// DeleteSelf removes the calling task. The control block is dropped from
// the ready set at once; stack reclamation is up to the scheduler's idle
// service. On a real scheduler this call does not return.
func (lm *Lifecycle) DeleteSelf() {
	cb := lm.sched.Current()
	if cb == nil {
		return
	}
	if idx := lm.slotOf(cb); idx >= 0 {
		RecordEvent(EvtTaskSelfDelete, uint8(idx), 0, 0)
	}
	DebugPrintln("[TASK] " + cb.Name + " deleting itself")
	lm.sched.Delete(cb)
}

// DeleteOther deletes the task *h refers to and overwrites *h with
// NilHandle once the scheduler has removed it. An empty or stale handle is
// a no-op. The returned value is always NilHandle.
//
// Only the caller's copy is cleared; other holders find out through Alive.
func (lm *Lifecycle) DeleteOther(h *Handle) Handle {
	if h == nil {
		return NilHandle
	}

	cs := EnterCritical()
	defer cs.Exit()

	if *h == NilHandle {
		return NilHandle
	}
	s := lm.lookup(*h)
	if s == nil {
		RecordEvent(EvtStaleDelete, uint8(h.slot()), h.generation(), 0)
		*h = NilHandle
		return NilHandle
	}

	if s.cb == lm.sched.Current() {
		// Deleting ourselves through our own handle; Delete won't return
		*h = NilHandle
		lm.DeleteSelf()
		return NilHandle
	}

	RecordEvent(EvtTaskDelete, uint8(h.slot()), h.generation(), 0)
	DebugPrintln("[TASK] deleting " + s.cb.Name)
	lm.sched.Delete(s.cb)
	*h = NilHandle
	return NilHandle
}

// Alive reports whether h still refers to a live task
func (lm *Lifecycle) Alive(h Handle) bool {
	cs := EnterCritical()
	defer cs.Exit()
	return lm.lookup(h) != nil
}

// Lookup returns the control block behind a live handle
func (lm *Lifecycle) Lookup(h Handle) (*ControlBlock, bool) {
	cs := EnterCritical()
	defer cs.Exit()
	s := lm.lookup(h)
	if s == nil {
		return nil, false
	}
	return s.cb, true
}

// LiveCount returns how many created tasks the scheduler still runs
func (lm *Lifecycle) LiveCount() int {
	cs := EnterCritical()
	defer cs.Exit()
	n := 0
	for i := range lm.slots {
		s := &lm.slots[i]
		if s.used && s.cb.State().Live() {
			n++
		}
	}
	return n
}

func (lm *Lifecycle) lookup(h Handle) *taskSlot {
	idx := h.slot()
	if h == NilHandle || idx < 0 || idx >= len(lm.slots) {
		return nil
	}
	s := &lm.slots[idx]
	if !s.used || s.gen != h.generation() || !s.cb.State().Live() {
		return nil
	}
	return s
}

func (lm *Lifecycle) slotOf(cb *ControlBlock) int {
	for i := range lm.slots {
		if lm.slots[i].used && lm.slots[i].cb == cb {
			return i
		}
	}
	return -1
}

// reclaim frees slots whose control block the scheduler has released
func (lm *Lifecycle) reclaim() {
	for i := range lm.slots {
		s := &lm.slots[i]
		if s.used && s.cb.State() == TaskDeleted {
			s.used = false
			s.cb = nil
		}
	}
}

func (lm *Lifecycle) freeSlot() int {
	for i := range lm.slots {
		if !lm.slots[i].used {
			return i
		}
	}
	return -1
}

// Global lifecycle manager used by application code.
var lifecycle *Lifecycle

// InitLifecycle binds the global lifecycle manager to the scheduler
func InitLifecycle(s Scheduler) *Lifecycle {
	if lifecycle == nil {
		lifecycle = NewLifecycle(s, MaxPriorities)
	}
	return lifecycle
}

// MustLifecycle returns the global lifecycle manager or halts.
func MustLifecycle() *Lifecycle {
	if lifecycle == nil {
		Halt(configError("lifecycle manager not initialized"))
	}
	return lifecycle
}

// CreateTask creates a task on the global lifecycle manager
func CreateTask(entry TaskFunc, name string, stack []StackWord, cb *ControlBlock, prio Priority) Handle {
	return MustLifecycle().Create(entry, name, stack, cb, prio)
}

// DeleteSelf deletes the calling task
func DeleteSelf() {
	MustLifecycle().DeleteSelf()
}

// DeleteOther deletes the task behind *h and empties *h
func DeleteOther(h *Handle) Handle {
	return MustLifecycle().DeleteOther(h)
}
