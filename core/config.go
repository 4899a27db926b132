package core

// Kernel and clock configuration shared by the firmware core and the
// scheduler binding. Values follow the 72MHz board the firmware was
// brought up on.
const (
	DefaultCoreClockHz     = 72000000 // SYSCLK after PLL x9
	DefaultSchedulerTickHz = 1000     // Scheduler time slice, 1ms

	MaxPriorities       = 5   // Priorities 0..4, higher number runs first
	MinimalStackSize    = 128 // Words
	MaxTaskNameLen      = 16  // Including terminator, as the C kernel counts it
	TimerTaskStackDepth = MinimalStackSize * 2
	IdleTaskStackDepth  = MinimalStackSize

	// MaxTasks is the number of application task slots in the lifecycle arena
	MaxTasks = 8

	// LibraryTickPeriodUS is the period of the dedicated library tick timer
	LibraryTickPeriodUS = 1000
)

// TimeSource selects what advances the library millisecond counter
type TimeSource uint8

const (
	// TimeSourceDedicated: a general-purpose timer owns the library counter
	// and the library tick hook does nothing.
	TimeSourceDedicated TimeSource = iota

	// TimeSourceSchedulerTick: no dedicated timer, the library tick hook
	// advances the counter from the scheduler tick.
	TimeSourceSchedulerTick
)

// TimeBaseConfig describes the clock tree and tick hardware for NewTimeBase
type TimeBaseConfig struct {
	CoreClockHz     uint32
	SchedulerTickHz uint32
	Source          TimeSource

	// SchedulerTimer drives the scheduler time slice and doubles as the
	// free-running counter used for microsecond delays.
	SchedulerTimer TickCounter

	// LibraryTimer drives the library millisecond counter. Required for
	// TimeSourceDedicated.
	LibraryTimer IntervalTimer

	// Scheduler is the external scheduler; nil until one is bound.
	Scheduler Scheduler
}

// applyDefaults fills in missing configuration values
func (c *TimeBaseConfig) applyDefaults() {
	if c.CoreClockHz == 0 {
		c.CoreClockHz = DefaultCoreClockHz
	}
	if c.SchedulerTickHz == 0 {
		c.SchedulerTickHz = DefaultSchedulerTickHz
	}
}
