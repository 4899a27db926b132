package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures one lifecycle or timing event for post-mortem analysis
type Event struct {
	EventType uint8  // Event type code
	Slot      uint8  // Task arena slot, when the event concerns a task
	Millis    uint32 // Library millisecond counter at the event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtTaskCreate     = 1 // Task registered with the scheduler (v1=prio, v2=stack words)
	EvtTaskDelete     = 2 // Task deleted through a handle (v1=generation)
	EvtTaskSelfDelete = 3 // Task deleted itself
	EvtStaleDelete    = 4 // Delete through an empty or stale handle ignored
	EvtDelayYield     = 5 // DelayMS blocked in the scheduler (v1=ticks, v2=ms)
	EvtDelayBusy      = 6 // DelayMS busy-waited (v1=ms)
	EvtConfigFault    = 7 // Configuration error, halting
	EvtDoubleInit     = 8 // Repeated time base initialization ignored
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]Event
	eventRingHead uint8        // Next write position
	eventsEnabled bool  = true // Always capture events
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer. It is safe from
// interrupt handlers.
func RecordEvent(eventType, slot uint8, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	cs := EnterCritical()
	idx := eventRingHead
	eventRing[idx] = Event{
		EventType: eventType,
		Slot:      slot,
		Millis:    Millis(),
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	cs.Exit()
}

// Events returns the captured events from oldest to newest
func Events() []Event {
	cs := EnterCritical()
	defer cs.Exit()

	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// CountEvents returns how many captured events have the given type
func CountEvents(eventType uint8) int {
	n := 0
	for _, evt := range Events() {
		if evt.EventType == eventType {
			n++
		}
	}
	return n
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtTaskCreate:
		return "TASK_CREATE"
	case EvtTaskDelete:
		return "TASK_DELETE"
	case EvtTaskSelfDelete:
		return "TASK_SELF_DELETE"
	case EvtStaleDelete:
		return "STALE_DELETE"
	case EvtDelayYield:
		return "DELAY_YIELD"
	case EvtDelayBusy:
		return "DELAY_BUSY"
	case EvtConfigFault:
		return "CONFIG_FAULT!"
	case EvtDoubleInit:
		return "DOUBLE_INIT"
	}
	return "UNKNOWN"
}

// DumpEventRing outputs the event ring buffer (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENT] " + eventName(evt.EventType) +
			" slot=" + itoa(int(evt.Slot)) +
			" ms=" + utoa(evt.Millis) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	cs := EnterCritical()
	defer cs.Exit()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
