package core

import (
	"errors"
	"strings"
	"testing"
)

func TestCalibrate(t *testing.T) {
	cal, err := Calibrate(72000000, 1000, 1<<24)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if cal.CountsPerUS != 72 || cal.MSPerTick != 1 || cal.Reload != 72000 {
		t.Errorf("Expected {72 1 72000}, got %+v", cal)
	}

	cal, err = Calibrate(72000000, 500, 0)
	if err != nil {
		t.Fatalf("Calibrate at 500Hz failed: %v", err)
	}
	if cal.MSPerTick != 2 || cal.Reload != 144000 {
		t.Errorf("Expected 2ms per tick and reload 144000, got %+v", cal)
	}
}

func TestCalibrateRejectsBadClocks(t *testing.T) {
	tests := []struct {
		name          string
		clock, tickHz uint32
		maxReload     uint32
	}{
		{"zero clock", 0, 1000, 0},
		{"zero tick", 72000000, 0, 0},
		{"fractional MHz", 72500000, 1000, 0},
		{"tick does not divide clock", 72000000, 7, 0},
		{"tick shorter than 1ms", 72000000, 2000, 0},
		{"reload too large", 72000000, 1000, 1000},
	}

	for _, tt := range tests {
		_, err := Calibrate(tt.clock, tt.tickHz, tt.maxReload)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected ConfigError, got %v", tt.name, err)
		}
	}
}

func TestNewTimeBaseStartsBothTimers(t *testing.T) {
	sched := &fakeScheduler{}
	tb, counter, lib := newTestTimeBase(t, sched)

	if counter.reload != 72000 {
		t.Errorf("Expected scheduler timer reload 72000, got %d", counter.reload)
	}
	if counter.handler == nil {
		t.Error("Scheduler timer has no handler")
	}
	if lib.periodUS != LibraryTickPeriodUS {
		t.Errorf("Expected library period %dus, got %d", LibraryTickPeriodUS, lib.periodUS)
	}
	if tb.Calibration().CountsPerUS != 72 {
		t.Errorf("Expected 72 counts per us, got %d", tb.Calibration().CountsPerUS)
	}
}

func TestNewTimeBaseHaltsOnBadConfig(t *testing.T) {
	safeCalls := 0
	SetSafeStateHandler(func() { safeCalls++ })
	defer SetSafeStateHandler(nil)

	tests := []struct {
		name   string
		cfg    TimeBaseConfig
		reason string
	}{
		{"no scheduler timer", TimeBaseConfig{LibraryTimer: &fakeInterval{}}, "scheduler tick timer missing"},
		{"no library timer", TimeBaseConfig{SchedulerTimer: &stepCounter{}}, "library tick timer missing"},
		{"bad clock", TimeBaseConfig{CoreClockHz: 1500000, SchedulerTimer: &stepCounter{}, LibraryTimer: &fakeInterval{}}, "whole MHz"},
		{"scheduler timer fails", TimeBaseConfig{
			SchedulerTimer: &stepCounter{startErr: errors.New("busy")},
			LibraryTimer:   &fakeInterval{},
		}, "scheduler tick timer: busy"},
		{"library timer fails", TimeBaseConfig{
			SchedulerTimer: &stepCounter{},
			LibraryTimer:   &fakeInterval{startErr: errors.New("no irq")},
		}, "library tick timer: no irq"},
	}

	for _, tt := range tests {
		err := expectHalt(t, func() { NewTimeBase(tt.cfg) })
		if !strings.Contains(err.Reason, tt.reason) {
			t.Errorf("%s: expected reason containing %q, got %q", tt.name, tt.reason, err.Reason)
		}
	}
	if safeCalls != len(tests) {
		t.Errorf("Expected safe state entered %d times, got %d", len(tests), safeCalls)
	}
}

func TestSchedulerTickSourceNeedsNoLibraryTimer(t *testing.T) {
	sched := &fakeScheduler{state: SchedulerRunning}
	tb := NewTimeBase(TimeBaseConfig{
		CoreClockHz:     72000000,
		SchedulerTickHz: 500,
		Source:          TimeSourceSchedulerTick,
		SchedulerTimer:  &stepCounter{},
		Scheduler:       sched,
	})

	for i := 0; i < 3; i++ {
		tb.SchedulerTick()
	}
	if tb.Millis() != 6 {
		t.Errorf("Expected 6ms after three 2ms ticks, got %d", tb.Millis())
	}
	if sched.ticks != 3 {
		t.Errorf("Expected 3 scheduler ticks, got %d", sched.ticks)
	}
}

func TestDelayUSAgainstReference(t *testing.T) {
	for _, step := range []uint32{1, 7, 1000, 35999, 50000} {
		tb, counter, _ := newTestTimeBase(t, nil)
		counter.step = step

		for _, us := range []uint32{0, 1, 10, 999, 5000} {
			before := counter.total
			tb.DelayUS(us)
			passed := counter.total - before
			if want := uint64(us) * 72; passed < want {
				t.Errorf("step %d: DelayUS(%d) waited %d counts, expected at least %d", step, us, passed, want)
			}
		}
	}
}

func TestDelayUSNeverYields(t *testing.T) {
	sched := &fakeScheduler{state: SchedulerRunning, current: &ControlBlock{}}
	tb, _, _ := newTestTimeBase(t, sched)

	tb.DelayUS(2000)
	if len(sched.delays) != 0 {
		t.Errorf("DelayUS yielded to the scheduler: %v", sched.delays)
	}
	if InCritical() {
		t.Error("DelayUS left a critical section open")
	}
}

func TestDelayMSYieldsWholeTicksFromTask(t *testing.T) {
	sched := &fakeScheduler{state: SchedulerRunning, current: &ControlBlock{}}
	tb, counter, _ := newTestTimeBase(t, sched)

	ClearEventRing()
	tb.DelayMS(500)

	if len(sched.delays) != 1 || sched.delays[0] != 500 {
		t.Fatalf("Expected one 500 tick delay, got %v", sched.delays)
	}
	if sched.ticks != 500 {
		t.Errorf("Expected 500 ticks blocked, got %d", sched.ticks)
	}
	if counter.total != 0 {
		t.Errorf("Expected no busy wait, counter moved %d", counter.total)
	}
	if n := CountEvents(EvtDelayYield); n != 1 {
		t.Errorf("Expected 1 yield event, got %d", n)
	}
	if n := CountEvents(EvtDelayBusy); n != 0 {
		t.Errorf("Expected no busy-wait event, got %d", n)
	}
}

func TestDelayMSBusyWaitsSubTickRemainder(t *testing.T) {
	sched := &fakeScheduler{state: SchedulerRunning, current: &ControlBlock{}}
	counter := &stepCounter{step: 11}
	tb := NewTimeBase(TimeBaseConfig{
		CoreClockHz:     72000000,
		SchedulerTickHz: 500,
		SchedulerTimer:  counter,
		LibraryTimer:    &fakeInterval{},
		Scheduler:       sched,
	})

	tb.DelayMS(5)
	if len(sched.delays) != 1 || sched.delays[0] != 2 {
		t.Fatalf("Expected one 2 tick delay, got %v", sched.delays)
	}

	// 1ms left over, less than one 2ms tick
	if counter.total < 72000 {
		t.Errorf("Expected at least 72000 counts busy-waited, got %d", counter.total)
	}
	if counter.total >= 2*72000 {
		t.Errorf("Expected less than one tick busy-waited, got %d", counter.total)
	}
}

func TestDelayMSBusyWaitsOutsideTasks(t *testing.T) {
	tests := []struct {
		name  string
		sched *fakeScheduler
		isr   bool
	}{
		{"scheduler not started", &fakeScheduler{state: SchedulerNotStarted, current: &ControlBlock{}}, false},
		{"no current task", &fakeScheduler{state: SchedulerRunning}, false},
		{"interrupt context", &fakeScheduler{state: SchedulerRunning, current: &ControlBlock{}}, true},
	}

	for _, tt := range tests {
		tb, counter, _ := newTestTimeBase(t, tt.sched)
		counter.step = 101

		if tt.isr {
			RunInterrupt(func() { tb.DelayMS(3) })
		} else {
			tb.DelayMS(3)
		}

		if len(tt.sched.delays) != 0 {
			t.Errorf("%s: expected no yield, got %v", tt.name, tt.sched.delays)
		}
		if counter.total < 3*72000 {
			t.Errorf("%s: expected at least 3ms busy-waited, got %d counts", tt.name, counter.total)
		}
	}
}

func TestDelayMSWithoutSchedulerBusyWaits(t *testing.T) {
	tb, counter, _ := newTestTimeBase(t, nil)
	counter.step = 997

	tb.DelayMS(2)
	if counter.total < 2*72000 {
		t.Errorf("Expected at least 2ms busy-waited, got %d counts", counter.total)
	}
}

func TestLibraryTickIsNotDoubleCounted(t *testing.T) {
	sched := &fakeScheduler{state: SchedulerRunning}
	tb, _, lib := newTestTimeBase(t, sched)

	for i := 0; i < 10; i++ {
		RunInterrupt(tb.SchedulerTick)
		RunInterrupt(lib.handler)
	}

	if tb.Millis() != 10 {
		t.Errorf("Expected 10ms, got %d", tb.Millis())
	}
	if sched.ticks != 10 {
		t.Errorf("Expected 10 scheduler ticks, got %d", sched.ticks)
	}

	// The generic hook is a no-op with a dedicated timer
	tb.LibraryTickHook()
	if tb.Millis() != 10 {
		t.Errorf("Library tick hook counted with a dedicated timer: %d", tb.Millis())
	}
}

func TestSchedulerTickWaitsForStart(t *testing.T) {
	sched := &fakeScheduler{state: SchedulerNotStarted}
	tb, _, _ := newTestTimeBase(t, sched)

	tb.SchedulerTick()
	if sched.ticks != 0 {
		t.Errorf("Tick handed to a scheduler that has not started")
	}

	sched.state = SchedulerRunning
	tb.SchedulerTick()
	if sched.ticks != 1 {
		t.Errorf("Expected 1 tick after start, got %d", sched.ticks)
	}
}

func TestUptime64Wrap(t *testing.T) {
	tb, _, _ := newTestTimeBase(t, nil)
	tb.uptime.Store(0xFFFFFFFE)

	tb.LibraryTick()
	tb.LibraryTick()
	tb.LibraryTick()

	if tb.Millis() != 1 {
		t.Errorf("Expected 32-bit counter to wrap to 1, got %d", tb.Millis())
	}
	if got := tb.Uptime64(); got != 1<<32+1 {
		t.Errorf("Expected uptime %d, got %d", uint64(1<<32+1), got)
	}
}

func TestUptime64MonotonicAcrossWrapUnderConcurrentTicks(t *testing.T) {
	tb, _, lib := newTestTimeBase(t, nil)
	const start = 0xFFFFFF00
	const ticks = 512
	tb.uptime.Store(start)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < ticks; i++ {
			RunInterrupt(lib.handler)
		}
	}()

	prev := tb.Uptime64()
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		now := tb.Uptime64()
		if now < prev || now > start+ticks {
			t.Fatalf("Uptime64 went from %#x to %#x", prev, now)
		}
		prev = now
	}

	want := uint64(start + ticks)
	if got := tb.Uptime64(); got != want {
		t.Errorf("Expected uptime %#x, got %#x", want, got)
	}
	if got := tb.Millis(); got != uint32(want) {
		t.Errorf("Expected millis %d, got %d", uint32(want), got)
	}
}

func TestInitTimeBaseTwiceIsNoOp(t *testing.T) {
	timeBase = nil
	defer func() { timeBase = nil }()

	cfg := TimeBaseConfig{SchedulerTimer: &stepCounter{}, LibraryTimer: &fakeInterval{}}
	first := InitTimeBase(cfg)
	ClearEventRing()

	cfg.CoreClockHz = 48000000
	second := InitTimeBase(cfg)
	if first != second {
		t.Error("Second InitTimeBase replaced the time base")
	}
	if second.Calibration().CountsPerUS != 72 {
		t.Errorf("Expected first calibration kept, got %+v", second.Calibration())
	}
	if n := CountEvents(EvtDoubleInit); n != 1 {
		t.Errorf("Expected 1 double init event, got %d", n)
	}
}

func TestInitTimeBaseMHz(t *testing.T) {
	timeBase = nil
	sched := &fakeScheduler{}
	counter := &stepCounter{}
	SetScheduler(sched)
	SetTickHardware(counter, &fakeInterval{})
	defer func() {
		timeBase = nil
		SetScheduler(nil)
		SetTickHardware(nil, nil)
	}()

	tb := InitTimeBaseMHz(72)
	if tb.Calibration().Reload != 72000 {
		t.Errorf("Expected reload 72000, got %d", tb.Calibration().Reload)
	}
	if MustTimeBase() != tb {
		t.Error("MustTimeBase returned a different time base")
	}
	if Millis() != 0 {
		t.Errorf("Expected 0ms, got %d", Millis())
	}
}

func TestMustTimeBaseHaltsWhenMissing(t *testing.T) {
	timeBase = nil
	err := expectHalt(t, func() { DelayMS(1) })
	if !strings.Contains(err.Reason, "time base") {
		t.Errorf("Unexpected halt reason %q", err.Reason)
	}
	if Millis() != 0 {
		t.Error("Millis without a time base should be 0")
	}
}
