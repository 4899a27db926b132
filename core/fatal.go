package core

// ConfigError is a static configuration fault. Retrying cannot fix it, so it
// is never returned to callers; Halt stops the machine instead.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Reason
}

func configError(reason string) *ConfigError {
	return &ConfigError{Reason: reason}
}

// safeStateHandler drives outputs to their known state while halted
var safeStateHandler func()

// SetSafeStateHandler registers the function that parks outputs on Halt.
// Board code typically drives the status LED pin low here.
func SetSafeStateHandler(handler func()) {
	safeStateHandler = handler
}

// Halt stops the firmware on a configuration error. It does not return.
func Halt(err error) {
	RecordEvent(EvtConfigFault, 0, 0, 0)
	if debugPrintln != nil {
		debugPrintln("[FATAL] " + err.Error())
	}
	haltMachine(err)
}
