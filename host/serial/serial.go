// Package serial opens the firmware's console UART from the host.
package serial

import (
	"errors"
	"fmt"
	"io"
)

// Port is an open console connection. Tests substitute an in-memory port.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and waits for queued output
	Flush() error
}

// Config describes the console link. Frames are always 8N1, as the
// firmware configures its UART.
type Config struct {
	Device string // e.g. "/dev/ttyUSB0", "COM3"
	Baud   int

	// ReadTimeoutMS bounds each read; 0 blocks until the firmware prints
	ReadTimeoutMS int
}

// DefaultBaud is the console rate the firmware boots with
const DefaultBaud = 115200

// DefaultConfig returns the console configuration for device
func DefaultConfig(device string) *Config {
	return &Config{Device: device, Baud: DefaultBaud}
}

// Validate checks the configuration before the port is touched
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("no console device given")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.ReadTimeoutMS < 0 {
		return fmt.Errorf("invalid read timeout %dms", c.ReadTimeoutMS)
	}
	return nil
}

// WriteLine sends one console command terminated by CR LF, which the
// firmware's receiver requires to complete a frame, and flushes it out.
func WriteLine(p Port, line string) error {
	if _, err := io.WriteString(p, line+"\r\n"); err != nil {
		return err
	}
	return p.Flush()
}
