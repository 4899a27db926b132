//go:build cortexm

package cortexm

import (
	"machine"

	"dualtick/core"
)

// SetSafeStatePin registers a safe-state handler that holds pin low while
// the firmware is halted on a configuration error. Pin starts high.
func SetSafeStatePin(pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.High()
	core.SetSafeStateHandler(pin.Low)
}
