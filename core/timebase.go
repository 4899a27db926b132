package core

import "sync/atomic"

// Calibration holds the coefficients derived once from the clock tree
type Calibration struct {
	CountsPerUS uint32 // Counter counts per microsecond
	MSPerTick   uint32 // Milliseconds per scheduler tick
	Reload      uint32 // Counter counts per scheduler tick
}

// Calibrate derives the delay coefficients for a core clock and scheduler
// tick rate. Every coefficient must be a non-zero integer.
func Calibrate(coreClockHz, schedulerTickHz, maxReload uint32) (Calibration, error) {
	if coreClockHz == 0 || schedulerTickHz == 0 {
		return Calibration{}, configError("zero clock or tick rate")
	}
	if coreClockHz%1000000 != 0 {
		return Calibration{}, configError("core clock " + utoa(coreClockHz) + "Hz is not a whole MHz")
	}
	if coreClockHz%schedulerTickHz != 0 {
		return Calibration{}, configError("tick rate " + utoa(schedulerTickHz) + "Hz does not divide core clock")
	}
	if 1000%schedulerTickHz != 0 {
		return Calibration{}, configError("tick rate " + utoa(schedulerTickHz) + "Hz is not a whole number of ms")
	}

	cal := Calibration{
		CountsPerUS: coreClockHz / 1000000,
		MSPerTick:   1000 / schedulerTickHz,
		Reload:      coreClockHz / schedulerTickHz,
	}
	if maxReload != 0 && cal.Reload > maxReload {
		return Calibration{}, configError("reload " + utoa(cal.Reload) + " exceeds counter range")
	}
	return cal, nil
}

// TimeBase arbitrates between the scheduler tick and the dedicated library
// millisecond tick. Each counter has exactly one writer: its own interrupt.
type TimeBase struct {
	cal     Calibration
	counter TickCounter
	sched   Scheduler
	source  TimeSource

	// schedTick is the scheduler's tick hand-off, resolved once at init
	schedTick func()

	// uptime is the library millisecond counter. One 64-bit word, so a
	// reader never pairs a high half with a stale low half across a wrap.
	uptime atomic.Uint64
}

// NewTimeBase calibrates, starts the scheduler tick timer and, for a
// dedicated time source, the library tick timer. Configuration faults halt.
func NewTimeBase(cfg TimeBaseConfig) *TimeBase {
	cfg.applyDefaults()
	if cfg.SchedulerTimer == nil {
		Halt(configError("scheduler tick timer missing"))
	}
	if cfg.Source == TimeSourceDedicated && cfg.LibraryTimer == nil {
		Halt(configError("dedicated library tick timer missing"))
	}

	cal, err := Calibrate(cfg.CoreClockHz, cfg.SchedulerTickHz, cfg.SchedulerTimer.MaxReload())
	if err != nil {
		Halt(err)
	}

	tb := &TimeBase{
		cal:     cal,
		counter: cfg.SchedulerTimer,
		sched:   cfg.Scheduler,
		source:  cfg.Source,
	}
	if tb.sched != nil {
		tb.schedTick = tb.sched.TickHook()
	}

	if err := cfg.SchedulerTimer.Start(cal.Reload, tb.SchedulerTick); err != nil {
		Halt(configError("scheduler tick timer: " + err.Error()))
	}
	if cfg.Source == TimeSourceDedicated {
		if err := cfg.LibraryTimer.Start(LibraryTickPeriodUS, tb.LibraryTick); err != nil {
			Halt(configError("library tick timer: " + err.Error()))
		}
	}
	return tb
}

// Calibration returns the coefficients computed at init
func (tb *TimeBase) Calibration() Calibration {
	return tb.cal
}

// LibraryTick is the dedicated library timer's interrupt handler and the
// only writer of the library millisecond counter.
func (tb *TimeBase) LibraryTick() {
	tb.advanceMillis(1)
}

// LibraryTickHook is the generic tick callback the library layer expects.
// With a dedicated timer declared it must not count, or every millisecond
// would be counted twice.
func (tb *TimeBase) LibraryTickHook() {
	if tb.source == TimeSourceDedicated {
		return
	}
	tb.advanceMillis(tb.cal.MSPerTick)
}

// SchedulerTick is the scheduler tick interrupt handler. It hands off to the
// scheduler once it has started and never writes the library counter itself.
func (tb *TimeBase) SchedulerTick() {
	tb.LibraryTickHook()
	if tb.schedTick == nil || tb.sched.State() == SchedulerNotStarted {
		return
	}
	tb.schedTick()
}

func (tb *TimeBase) advanceMillis(n uint32) {
	tb.uptime.Add(uint64(n))
}

// Millis returns the library millisecond counter, wrapping at 2^32
func (tb *TimeBase) Millis() uint32 {
	return uint32(tb.uptime.Load())
}

// Uptime64 returns the library millisecond counter without wrapping
func (tb *TimeBase) Uptime64() uint64 {
	return tb.uptime.Load()
}

// DelayUS busy-waits for at least us microseconds. It never yields, so it is
// safe from interrupt handlers and before the scheduler starts.
func (tb *TimeBase) DelayUS(us uint32) {
	target := uint64(us) * uint64(tb.cal.CountsPerUS)
	var counted uint64
	for counted < target {
		counted += tb.spin(target - counted)
	}
}

// spin counts up to want counts (capped at half a reload period) with
// interrupts masked, so the mask is never held across a whole period.
// Counts that pass between two spins are not seen, which only lengthens
// the delay.
func (tb *TimeBase) spin(want uint64) uint64 {
	limit := uint64(tb.cal.Reload / 2)
	if limit == 0 {
		limit = 1
	}
	if want < limit {
		limit = want
	}

	cs := EnterCritical()
	defer cs.Exit()

	var counted uint64
	prev := tb.counter.Count()
	for counted < limit {
		now := tb.counter.Count()
		if now != prev {
			counted += uint64(Elapsed(prev, now, tb.cal.Reload))
			prev = now
		}
	}
	return counted
}

// DelayMS waits for ms milliseconds. From a task with the scheduler running
// the whole ticks are spent blocked in the scheduler and only the sub-tick
// remainder is busy-waited. From an interrupt handler, or before the
// scheduler starts, the whole delay is busy-waited.
//
// DelayMS may only be called from a task or an interrupt handler. The
// scheduler cannot tell which goroutine calls it, so a helper goroutine
// calling it while a task runs would block that task instead of itself.
func (tb *TimeBase) DelayMS(ms uint32) {
	if tb.canYield() {
		if ticks := ms / tb.cal.MSPerTick; ticks > 0 {
			RecordEvent(EvtDelayYield, 0, ticks, ms)
			tb.sched.Delay(ticks)
		}
		ms %= tb.cal.MSPerTick
	}
	if ms == 0 {
		return
	}

	RecordEvent(EvtDelayBusy, 0, ms, 0)
	for ms > 0 {
		chunk := ms
		if chunk > 1000 {
			chunk = 1000
		}
		tb.DelayUS(chunk * 1000)
		ms -= chunk
	}
}

// canYield reports whether a blocking wait can be handed to the scheduler.
// A running scheduler with a current task means the caller is that task.
func (tb *TimeBase) canYield() bool {
	if tb.sched == nil || InInterrupt() {
		return false
	}
	return tb.sched.State() == SchedulerRunning && tb.sched.Current() != nil
}

// Global time base used by application code.
var timeBase *TimeBase

// Tick hardware registered by board code.
var (
	schedulerTimer TickCounter
	libraryTimer   IntervalTimer
)

// SetTickHardware is called by target-specific code to register its timers.
func SetTickHardware(sched TickCounter, lib IntervalTimer) {
	schedulerTimer = sched
	libraryTimer = lib
}

// InitTimeBase initializes the global time base. Repeated calls are ignored.
func InitTimeBase(cfg TimeBaseConfig) *TimeBase {
	if timeBase != nil {
		RecordEvent(EvtDoubleInit, 0, 0, 0)
		return timeBase
	}
	timeBase = NewTimeBase(cfg)
	return timeBase
}

// InitTimeBaseMHz initializes the global time base for a core clock given
// in MHz using the registered tick hardware, the bound scheduler and the
// default tick rate.
func InitTimeBaseMHz(clockMHz uint32) *TimeBase {
	return InitTimeBase(TimeBaseConfig{
		CoreClockHz:     clockMHz * 1000000,
		SchedulerTickHz: DefaultSchedulerTickHz,
		Source:          TimeSourceDedicated,
		SchedulerTimer:  schedulerTimer,
		LibraryTimer:    libraryTimer,
		Scheduler:       scheduler,
	})
}

// MustTimeBase returns the global time base or halts if it is missing.
func MustTimeBase() *TimeBase {
	if timeBase == nil {
		Halt(configError("time base not initialized"))
	}
	return timeBase
}

// DelayUS busy-waits on the global time base
func DelayUS(us uint32) {
	MustTimeBase().DelayUS(us)
}

// DelayMS waits on the global time base
func DelayMS(ms uint32) {
	MustTimeBase().DelayMS(ms)
}

// LibraryDelay is the library layer's blocking delay, routed through DelayMS
// so library code yields like application code does.
func LibraryDelay(ms uint32) {
	MustTimeBase().DelayMS(ms)
}

// Millis returns the global library millisecond counter
func Millis() uint32 {
	if timeBase == nil {
		return 0
	}
	return timeBase.Millis()
}
