package serial

import (
	"bytes"
	"errors"
	"testing"
)

type bufferPort struct {
	bytes.Buffer
	flushes  int
	flushErr error
}

func (b *bufferPort) Close() error { return nil }

func (b *bufferPort) Flush() error {
	b.flushes++
	return b.flushErr
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", *DefaultConfig("/dev/ttyUSB0"), true},
		{"no device", Config{Baud: DefaultBaud}, false},
		{"zero baud", Config{Device: "COM3"}, false},
		{"negative timeout", Config{Device: "COM3", Baud: 9600, ReadTimeoutMS: -1}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: expected ok=%v, got %v", tt.name, tt.ok, err)
		}
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if _, err := Open(&Config{Baud: DefaultBaud}); err == nil {
		t.Error("Expected error for missing device")
	}
}

func TestWriteLine(t *testing.T) {
	port := &bufferPort{}
	if err := WriteLine(port, "uptime"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}
	if got := port.String(); got != "uptime\r\n" {
		t.Errorf("Expected %q, got %q", "uptime\r\n", got)
	}
	if port.flushes != 1 {
		t.Errorf("Expected 1 flush, got %d", port.flushes)
	}

	port.flushErr = errors.New("gone")
	if err := WriteLine(port, "key1"); err == nil {
		t.Error("Expected flush error")
	}
}
