//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// nativePort is a console opened through tarm/serial
type nativePort struct {
	*serial.Port
	device string
}

// Open opens the console described by cfg
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeoutMS) * time.Millisecond,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open console %s: %w", cfg.Device, err)
	}
	return &nativePort{Port: port, device: cfg.Device}, nil
}

// Close releases the device
func (p *nativePort) Close() error {
	if err := p.Port.Close(); err != nil {
		return fmt.Errorf("failed to close console %s: %w", p.device, err)
	}
	return nil
}
