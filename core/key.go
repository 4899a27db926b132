package core

// KeyScanner reports button presses on pull-up inputs. A key reads low
// while held; Scan reports the press once, on the high-to-low edge. Polling
// it from a task every few tens of milliseconds debounces the contacts.
type KeyScanner struct {
	pins []GPIOPin
	last []bool // Previous level per key, true = released
}

// NewKeyScanner creates a scanner; key codes follow argument order from 1
func NewKeyScanner(pins ...GPIOPin) *KeyScanner {
	last := make([]bool, len(pins))
	for i := range last {
		last[i] = true
	}
	return &KeyScanner{pins: pins, last: last}
}

// Init configures every key pin as an input with pull-up
func (k *KeyScanner) Init() error {
	gpio := MustGPIO()
	for _, pin := range k.pins {
		if err := gpio.ConfigureInputPullUp(pin); err != nil {
			return err
		}
	}
	return nil
}

// Scan returns 0 when no key was pressed since the last scan, otherwise the
// 1-based code of the pressed key. When several keys go down in the same
// scan the highest code wins.
func (k *KeyScanner) Scan() uint8 {
	gpio := MustGPIO()
	var code uint8
	for i, pin := range k.pins {
		level, err := gpio.GetPin(pin)
		if err != nil {
			continue
		}
		if k.last[i] && !level {
			code = uint8(i + 1)
		}
		k.last[i] = level
	}
	return code
}
