//go:build tinygo

package core

import "runtime/interrupt"

// haltMachine masks interrupts and spins with outputs held in their safe
// state until the watchdog or a reset recovers the board.
func haltMachine(err error) {
	interrupt.Disable()
	for {
		if safeStateHandler != nil {
			safeStateHandler()
		}
	}
}
