//go:build cortexm

package cortexm

import (
	"errors"
	"machine"

	"dualtick/core"
)

// ErrPinNotConfigured is returned when a pin is read before it was set up.
// Reading it as low would look like a held key.
var ErrPinNotConfigured = errors.New("pin not configured")

type pinState struct {
	pin  machine.Pin
	mode machine.PinMode
}

// GPIODriver drives board pins through TinyGo's machine package
type GPIODriver struct {
	pins map[core.GPIOPin]pinState
}

func NewGPIODriver() *GPIODriver {
	return &GPIODriver{pins: make(map[core.GPIOPin]pinState)}
}

func (d *GPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	d.configure(pin, machine.PinOutput)
	return nil
}

func (d *GPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	d.configure(pin, machine.PinInputPullup)
	return nil
}

// configure sets the pin mode unless the pin already has it
func (d *GPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) machine.Pin {
	if st, ok := d.pins[pin]; ok && st.mode == mode {
		return st.pin
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: mode})
	d.pins[pin] = pinState{pin: p, mode: mode}
	return p
}

// SetPin drives an output, configuring the pin as one on first use
func (d *GPIODriver) SetPin(pin core.GPIOPin, high bool) error {
	st, ok := d.pins[pin]
	p := st.pin
	if !ok {
		p = d.configure(pin, machine.PinOutput)
	}
	p.Set(high)
	return nil
}

func (d *GPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	st, ok := d.pins[pin]
	if !ok {
		return false, ErrPinNotConfigured
	}
	return st.pin.Get(), nil
}
