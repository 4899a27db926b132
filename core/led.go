package core

// LED is an indicator on a GPIO output. Boards wire most LEDs active low.
type LED struct {
	Pin       GPIOPin
	ActiveLow bool

	on bool
}

// Init configures the pin and leaves the LED off
func (l *LED) Init() error {
	if err := MustGPIO().ConfigureOutput(l.Pin); err != nil {
		return err
	}
	return l.Off()
}

// On lights the LED
func (l *LED) On() error {
	return l.set(true)
}

// Off darkens the LED
func (l *LED) Off() error {
	return l.set(false)
}

// Toggle inverts the LED
func (l *LED) Toggle() error {
	return l.set(!l.on)
}

// IsOn reports the last state written
func (l *LED) IsOn() bool {
	return l.on
}

func (l *LED) set(on bool) error {
	level := on
	if l.ActiveLow {
		level = !on
	}
	if err := MustGPIO().SetPin(l.Pin, level); err != nil {
		return err
	}
	l.on = on
	return nil
}
