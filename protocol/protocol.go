// Package protocol frames the line-oriented serial traffic between the
// firmware console and host tools.
package protocol

// Version represents the dualtick firmware version
const Version = "0.1.0"

// Line framing constants
const (
	LineMax = 200 // Receive buffer size; a frame holds at most LineMax-1 bytes

	CR = 0x0d
	LF = 0x0a
)
