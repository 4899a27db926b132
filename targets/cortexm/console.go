//go:build cortexm

package cortexm

import (
	"machine"
	"time"

	"dualtick/core"
	"dualtick/protocol"
)

// InitConsole configures the UART and makes it the console and the debug
// writer
func InitConsole(uart *machine.UART, baud uint32, tx, rx machine.Pin) error {
	err := uart.Configure(machine.UARTConfig{
		BaudRate: baud,
		TX:       tx,
		RX:       rx,
	})
	if err != nil {
		return err
	}

	core.SetConsole(uart)
	core.SetDebugWriter(func(s string) {
		uart.Write([]byte(s + "\r\n"))
	})
	return nil
}

// PumpConsole moves received bytes into rx. It runs as a goroutine beside
// the scheduler and never returns. It is not a task, so it waits with
// time.Sleep and must not call core.DelayMS.
func PumpConsole(uart *machine.UART, rx *protocol.LineReceiver) {
	for {
		for uart.Buffered() > 0 {
			b, err := uart.ReadByte()
			if err != nil {
				break
			}
			rx.Feed(b)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
