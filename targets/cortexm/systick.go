//go:build cortexm

// Package cortexm holds the board support shared by the Cortex-M targets:
// the SysTick scheduler tick, the machine GPIO driver, the UART console and
// the character display.
package cortexm

import (
	"device/arm"
	"errors"

	"dualtick/core"
)

// SYST_CSR bits
const (
	systEnable    = 1 << 0
	systTickInt   = 1 << 1
	systClkSource = 1 << 2 // Processor clock
)

// SysTick reload is 24 bits wide
const systMaxReload = 1 << 24

// SysTick drives the scheduler time slice. Its current value doubles as the
// free-running counter for microsecond delays.
type SysTick struct {
	reload  uint32
	handler func()
}

// Tick is the board's single SysTick instance
var Tick = &SysTick{}

var errBadReload = errors.New("systick: reload out of range")

// Start programs the reload value and enables the interrupt
func (s *SysTick) Start(reload uint32, handler func()) error {
	if reload == 0 || reload > systMaxReload {
		return errBadReload
	}
	s.reload = reload
	s.handler = handler

	arm.SYST.SYST_CSR.Set(0)
	arm.SYST.SYST_RVR.Set(reload - 1)
	arm.SYST.SYST_CVR.Set(0)
	arm.SYST.SYST_CSR.Set(systEnable | systTickInt | systClkSource)
	return nil
}

// Count returns the counts elapsed in the current period. The hardware
// counts down from reload-1, so the value is mirrored.
func (s *SysTick) Count() uint32 {
	return s.reload - 1 - arm.SYST.SYST_CVR.Get()
}

// MaxReload returns the largest period the counter supports
func (s *SysTick) MaxReload() uint32 {
	return systMaxReload
}

//export SysTick_Handler
func sysTickHandler() {
	if Tick.handler != nil {
		Tick.handler()
	}
}
