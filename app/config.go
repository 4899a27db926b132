package app

import "dualtick/core"

// Board independent application settings
const (
	CoreClockMHz = core.DefaultCoreClockHz / 1000000
	ConsoleBaud  = 115200

	StartTaskPriority = 0
	Task1Priority     = 1 // LED1 blink
	Task2Priority     = 2 // LED2 blink
	Task3Priority     = 3 // Tick report
	Task4Priority     = 4 // Key scan

	StartTaskStackSize = core.MinimalStackSize
	TaskStackSize      = core.MinimalStackSize

	BlinkPeriodMS = 500 // Task1..3 period
	KeyPollMS     = 100 // Task4 period
	StatusHoldMS  = 500 // How long a display message stays up
)

// Board names the pins the application drives
type Board struct {
	LED1, LED2 core.GPIOPin
	LEDActiveLow bool

	Key1, Key2 core.GPIOPin
}
