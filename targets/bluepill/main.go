//go:build stm32f103

package main

import (
	"machine"

	"dualtick/app"
	"dualtick/core"
	"dualtick/kernel"
	"dualtick/protocol"
	"dualtick/targets/cortexm"
)

// Blue Pill wiring: LEDs on PA0/PA1 sink current, keys on PB1/PB11 pull
// to ground, the on-board LED on PC13 reports a halt
var board = app.Board{
	LED1:         core.GPIOPin(machine.PA0),
	LED2:         core.GPIOPin(machine.PA1),
	LEDActiveLow: true,
	Key1:         core.GPIOPin(machine.PB1),
	Key2:         core.GPIOPin(machine.PB11),
}

const displayAddr = 0x27

func main() {
	cortexm.SetSafeStatePin(machine.PC13)

	uart := machine.DefaultUART
	if err := cortexm.InitConsole(uart, app.ConsoleBaud, machine.UART_TX_PIN, machine.UART_RX_PIN); err != nil {
		core.Halt(err)
	}

	core.SetGPIODriver(cortexm.NewGPIODriver())

	// SysTick is the scheduler tick, TIM2 the library tick
	k := kernel.New()
	core.SetScheduler(k)
	core.SetTickHardware(cortexm.Tick, libraryTimer)
	tb := core.InitTimeBaseMHz(app.CoreClockMHz)
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
