package core

// GPIOPin is a board pin number as the target's machine package counts it
type GPIOPin uint32

// GPIODriver is what the LED and key code needs from the board's pins
type GPIODriver interface {
	// ConfigureOutput makes pin a push-pull output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp makes pin an input held high until grounded,
	// which is how the keys are wired
	ConfigureInputPullUp(pin GPIOPin) error

	SetPin(pin GPIOPin, high bool) error
	GetPin(pin GPIOPin) (bool, error)
}

var gpioDriver GPIODriver

// SetGPIODriver registers the board's pin driver
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the registered driver. Using a pin before the board
// registered one is a wiring fault and halts.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		Halt(configError("GPIO driver not configured"))
	}
	return gpioDriver
}
