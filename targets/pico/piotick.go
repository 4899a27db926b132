//go:build rp2040

package main

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// The library tick is a PIO square wave whose rising edges interrupt
// through the GPIO bank, clear of the timer alarms TinyGo's runtime uses.

// buildSquareWaveProgram toggles one SET pin every 32 state machine cycles
func buildSquareWaveProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Set(rp2pio.SetDestPins, 1).Delay(31).Encode(), // 0: set pins, 1 [31]
		asm.Set(rp2pio.SetDestPins, 0).Delay(31).Encode(), // 1: set pins, 0 [31]
		// .wrap
	}
}

const (
	squareWaveOrigin = 0
	cyclesPerPeriod  = 64 // Two instructions, 32 cycles each
)

// pioTickTimer generates the library tick with a PIO state machine
type pioTickTimer struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	pin     machine.Pin
	handler func()
}

var libraryTimer = &pioTickTimer{
	pio: rp2pio.PIO1,
	sm:  rp2pio.PIO1.StateMachine(0),
	pin: machine.GPIO15,
}

var errBadPeriod = errors.New("pio tick: period out of range")

// Start runs the square wave at 1/periodUS and calls handler on every
// rising edge
func (t *pioTickTimer) Start(periodUS uint32, handler func()) error {
	if periodUS == 0 {
		return errBadPeriod
	}
	t.handler = handler

	// Clock divider in 16.8 fixed point: cpu / (cycles per period * frequency)
	div := uint64(machine.CPUFrequency()) * uint64(periodUS) * 256 / (cyclesPerPeriod * 1000000)
	whole := div >> 8
	if whole == 0 || whole > 0xFFFF {
		return errBadPeriod
	}

	t.sm.TryClaim()
	program := buildSquareWaveProgram()
	offset, err := t.pio.AddProgram(program, squareWaveOrigin)
	if err != nil {
		return err
	}

	t.pin.Configure(machine.PinConfig{Mode: t.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(t.pin, 1)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(uint16(whole), uint8(div&0xFF))

	t.sm.Init(offset, cfg)
	t.sm.SetPindirsConsecutive(t.pin, 1, true)
	t.sm.SetPinsConsecutive(t.pin, 1, false)

	// The input stage still sees a PIO-driven pin
	if err := t.pin.SetInterrupt(machine.PinRising, t.edge); err != nil {
		return err
	}

	t.sm.SetEnabled(true)
	return nil
}

func (t *pioTickTimer) edge(machine.Pin) {
	if t.handler != nil {
		t.handler()
	}
}
