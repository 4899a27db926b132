//go:build rp2040

package main

import (
	"machine"

	"dualtick/app"
	"dualtick/core"
	"dualtick/kernel"
	"dualtick/protocol"
	"dualtick/targets/cortexm"
)

// Pico wiring: LEDs on GP2/GP3 sink current, keys on GP20/GP21 pull to
// ground, the on-board LED on GP25 reports a halt
var board = app.Board{
	LED1:         core.GPIOPin(machine.GPIO2),
	LED2:         core.GPIOPin(machine.GPIO3),
	LEDActiveLow: true,
	Key1:         core.GPIOPin(machine.GPIO20),
	Key2:         core.GPIOPin(machine.GPIO21),
}

const (
	coreClockMHz = 125
	displayAddr  = 0x27
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	cortexm.SetSafeStatePin(machine.LED)

	uart := machine.UART0
	if err := cortexm.InitConsole(uart, app.ConsoleBaud, machine.UART0_TX_PIN, machine.UART0_RX_PIN); err != nil {
		core.Halt(err)
	}

	core.SetGPIODriver(cortexm.NewGPIODriver())

	// SysTick is the scheduler tick, the PIO square wave the library tick
	k := kernel.New()
	core.SetScheduler(k)
	core.SetTickHardware(cortexm.Tick, libraryTimer)
	tb := core.InitTimeBaseMHz(coreClockMHz)
	lm := core.InitLifecycle(k)

	var status app.StatusDisplay = app.NopDisplay{}
	if lcd, err := cortexm.NewDisplay(machine.I2C0, displayAddr); err == nil {
		status = lcd
	} else {
		core.Println("Display not found: " + err.Error())
	}

	a := app.New(lm, tb, k, board, status)
	a.Commands = &protocol.LineReceiver{}
	if err := a.Init(); err != nil {
		core.Halt(err)
	}
	go cortexm.PumpConsole(uart, a.Commands)

	a.Launch()
	k.Start()

	core.Println("After scheduler start - should NEVER reach here!")
	select {}
}
