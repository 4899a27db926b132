// Package monitor follows the firmware's diagnostic console over a serial
// port and keeps statistics on task activity and time-base drift.
package monitor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"dualtick/host/serial"
)

// Monitor reads console lines from the firmware and sends it commands
type Monitor struct {
	port serial.Port

	mu    sync.Mutex
	stats *Stats
}

// New creates a monitor on an open port
func New(port serial.Port) *Monitor {
	return &Monitor{
		port:  port,
		stats: NewStats(),
	}
}

// Connect opens the console port on device
func Connect(device string, baud int) (*Monitor, error) {
	cfg := serial.DefaultConfig(device)
	if baud > 0 {
		cfg.Baud = baud
	}
	return ConnectWithConfig(cfg)
}

// ConnectWithConfig opens the console port with a custom serial config
func ConnectWithConfig(cfg *serial.Config) (*Monitor, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open console: %w", err)
	}
	return New(port), nil
}

// Close closes the port, which also ends Run
func (m *Monitor) Close() error {
	return m.port.Close()
}

// Run reads lines until the port is closed or fails. Every parsed record
// is folded into the statistics and passed to handle when it is not nil.
func (m *Monitor) Run(handle func(Record)) error {
	scanner := bufio.NewScanner(m.port)
	for scanner.Scan() {
		rec := ParseLine(scanner.Text())

		m.mu.Lock()
		m.stats.Add(rec)
		m.mu.Unlock()

		if handle != nil {
			handle(rec)
		}
	}

	err := scanner.Err()
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("console read failed: %w", err)
}

// Send writes one command line. The firmware frames input on CR LF.
func (m *Monitor) Send(cmd string) error {
	if err := serial.WriteLine(m.port, cmd); err != nil {
		return fmt.Errorf("failed to send %q: %w", cmd, err)
	}
	return nil
}

// Stats returns a copy of the statistics gathered so far
func (m *Monitor) Stats() *Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.Clone()
}
