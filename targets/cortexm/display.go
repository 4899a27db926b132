//go:build cortexm

package cortexm

import (
	"machine"

	"tinygo.org/x/drivers/hd44780i2c"
)

// Display is a 16x2 character LCD behind a PCF8574 I2C backpack
type Display struct {
	lcd hd44780i2c.Device
}

// NewDisplay configures the bus and the LCD
func NewDisplay(bus *machine.I2C, addr uint8) (*Display, error) {
	if err := bus.Configure(machine.I2CConfig{Frequency: 100 * machine.KHz}); err != nil {
		return nil, err
	}

	lcd := hd44780i2c.New(bus, addr)
	if err := lcd.Configure(hd44780i2c.Config{Width: 16, Height: 2}); err != nil {
		return nil, err
	}
	lcd.ClearDisplay()
	return &Display{lcd: lcd}, nil
}

// ShowString writes s at a 1-based row and column
func (d *Display) ShowString(row, col uint8, s string) {
	d.lcd.SetCursor(col-1, row-1)
	d.lcd.Print([]byte(s))
}
