package core

// TickCounter is the hardware timer behind the scheduler tick. It counts up
// from 0 to reload-1, raises its interrupt and wraps. The same count is read
// for busy-wait delays.
type TickCounter interface {
	// Start programs the reload value, installs handler as the period
	// interrupt and starts counting.
	Start(reload uint32, handler func()) error

	// Count returns the current count in [0, reload)
	Count() uint32

	// MaxReload is the largest reload the hardware accepts
	MaxReload() uint32
}

// IntervalTimer is a general-purpose timer that fires handler once per
// period. Only the owner of the interrupt writes the state it updates.
type IntervalTimer interface {
	Start(periodUS uint32, handler func()) error
}

// Elapsed returns the counts between two reads of a counter that wraps
// after period counts. The reads must be less than one period apart.
// A period of 0 means a free-running 32-bit counter.
func Elapsed(prev, now, period uint32) uint32 {
	if period == 0 || now >= prev {
		return now - prev
	}
	return period - prev + now
}
