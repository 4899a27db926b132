package monitor

import (
	"strconv"
	"strings"
)

// Kind classifies a firmware console line
type Kind uint8

const (
	KindUnknown     Kind = iota
	KindBanner           // Printed once before the scheduler starts
	KindTaskRunning      // "TaskN is running  RTOS tick: T [HAL tick: M]"
	KindKeyPressed       // "KEYN Pressed!"
	KindTaskDeleted      // "TaskN Deleted"
	KindFatal            // "[FATAL] reason"
	KindDebug            // Other "[TAG] ..." diagnostics
)

func (k Kind) String() string {
	switch k {
	case KindBanner:
		return "banner"
	case KindTaskRunning:
		return "running"
	case KindKeyPressed:
		return "key"
	case KindTaskDeleted:
		return "deleted"
	case KindFatal:
		return "fatal"
	case KindDebug:
		return "debug"
	}
	return "unknown"
}

const bannerText = "Before scheduler start"

// Record is one parsed console line
type Record struct {
	Kind     Kind
	Task     int // Task number for running and deleted lines
	Key      int // Key number for key lines
	RTOSTick uint32
	HALTick  uint32
	HasHAL   bool
	Text     string // The line without its line ending
}

// ParseLine classifies a console line. Lines it does not recognise come
// back as KindUnknown with Text set.
func ParseLine(line string) Record {
	line = strings.TrimRight(line, "\r\n")
	r := Record{Kind: KindUnknown, Text: line}
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == bannerText:
		r.Kind = KindBanner
		return r
	case strings.HasPrefix(trimmed, "[FATAL]"):
		r.Kind = KindFatal
		return r
	case strings.HasPrefix(trimmed, "["):
		r.Kind = KindDebug
		return r
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return r
	}

	switch {
	case len(fields) == 2 && fields[1] == "Pressed!":
		if n, ok := numberAfter(fields[0], "KEY"); ok {
			r.Kind = KindKeyPressed
			r.Key = n
		}
	case len(fields) == 2 && fields[1] == "Deleted":
		if n, ok := numberAfter(fields[0], "Task"); ok {
			r.Kind = KindTaskDeleted
			r.Task = n
		}
	case len(fields) >= 6 && fields[1] == "is" && fields[2] == "running":
		n, ok := numberAfter(fields[0], "Task")
		if !ok {
			return r
		}
		rtos, ok := valueAfter(fields, "RTOS")
		if !ok {
			return r
		}
		r.Kind = KindTaskRunning
		r.Task = n
		r.RTOSTick = rtos
		r.HALTick, r.HasHAL = valueAfter(fields, "HAL")
	}
	return r
}

// numberAfter parses the decimal number that follows prefix in s
func numberAfter(s, prefix string) (int, bool) {
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

// valueAfter finds "<label> tick: <value>" in fields
func valueAfter(fields []string, label string) (uint32, bool) {
	for i := 0; i+2 < len(fields); i++ {
		if fields[i] != label || fields[i+1] != "tick:" {
			continue
		}
		v, err := strconv.ParseUint(fields[i+2], 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(v), true
	}
	return 0, false
}
