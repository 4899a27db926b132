package core

import "testing"

// stepCounter is a TickCounter that moves step counts every time it is
// read. total is the independent reference of counts that really passed.
type stepCounter struct {
	reload   uint32
	step     uint32
	max      uint32
	total    uint64
	handler  func()
	startErr error
}

func (c *stepCounter) Start(reload uint32, handler func()) error {
	if c.startErr != nil {
		return c.startErr
	}
	c.reload = reload
	c.handler = handler
	return nil
}

func (c *stepCounter) Count() uint32 {
	c.total += uint64(c.step)
	return uint32(c.total % uint64(c.reload))
}

func (c *stepCounter) MaxReload() uint32 {
	if c.max == 0 {
		return 1 << 24
	}
	return c.max
}

// fakeInterval records how the library timer was started
type fakeInterval struct {
	periodUS uint32
	handler  func()
	startErr error
}

func (f *fakeInterval) Start(periodUS uint32, handler func()) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.periodUS = periodUS
	f.handler = handler
	return nil
}

// fakeScheduler records what the core asks of the scheduler
type fakeScheduler struct {
	state     SchedulerState
	current   *ControlBlock
	ticks     uint32
	delays    []uint32
	created   []*ControlBlock
	deleted   []*ControlBlock
	createErr error

	// reclaim marks deleted tasks TaskDeleted at once, as if the idle
	// task had already run
	reclaim bool

	// criticalOnCreate records InCritical for every Create
	criticalOnCreate []bool
}

func (s *fakeScheduler) Create(entry TaskFunc, cb *ControlBlock, stack []StackWord) error {
	s.criticalOnCreate = append(s.criticalOnCreate, InCritical())
	if s.createErr != nil {
		return s.createErr
	}
	cb.SetState(TaskReady)
	s.created = append(s.created, cb)
	return nil
}

func (s *fakeScheduler) Delete(cb *ControlBlock) {
	s.deleted = append(s.deleted, cb)
	if s.reclaim {
		cb.SetState(TaskDeleted)
	} else {
		cb.SetState(TaskDeleting)
	}
	if cb == s.current {
		s.current = nil
	}
}

func (s *fakeScheduler) Delay(ticks uint32) {
	s.delays = append(s.delays, ticks)
	s.ticks += ticks
}

func (s *fakeScheduler) State() SchedulerState  { return s.state }
func (s *fakeScheduler) Current() *ControlBlock { return s.current }
func (s *fakeScheduler) TickCount() uint32      { return s.ticks }
func (s *fakeScheduler) TickHook() func()       { return func() { s.ticks++ } }

// MockGPIODriver records pin levels; unset inputs read high (pull-up)
type MockGPIODriver struct {
	pins   map[GPIOPin]bool
	inputs map[GPIOPin]bool
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:   make(map[GPIOPin]bool),
		inputs: make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.pins[pin] = true
	m.inputs[pin] = true
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	v, ok := m.pins[pin]
	if !ok {
		return true, nil
	}
	return v, nil
}

// expectHalt runs fn and returns the ConfigError it halted with
func expectHalt(t *testing.T, fn func()) *ConfigError {
	t.Helper()
	var got interface{}
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	if got == nil {
		t.Fatal("Expected halt, call returned")
	}
	err, ok := got.(*ConfigError)
	if !ok {
		t.Fatalf("Expected *ConfigError panic, got %v", got)
	}
	return err
}

// newTestTimeBase builds a time base on fakes with a 72MHz clock and 1ms tick
func newTestTimeBase(t *testing.T, sched Scheduler) (*TimeBase, *stepCounter, *fakeInterval) {
	t.Helper()
	counter := &stepCounter{step: 7}
	lib := &fakeInterval{}
	tb := NewTimeBase(TimeBaseConfig{
		CoreClockHz:     72000000,
		SchedulerTickHz: 1000,
		Source:          TimeSourceDedicated,
		SchedulerTimer:  counter,
		LibraryTimer:    lib,
		Scheduler:       sched,
	})
	return tb, counter, lib
}
