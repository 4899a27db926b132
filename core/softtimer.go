package core

import "sync"

// SoftTimer is a callback run by the scheduler's timer service task once
// the scheduler tick reaches WakeTick
type SoftTimer struct {
	WakeTick uint32
	Handler  func(*SoftTimer) uint8
	Next     *SoftTimer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// TimerList holds pending soft timers sorted by WakeTick
type TimerList struct {
	head *SoftTimer
}

// tickBefore compares ticks modulo 2^32
func tickBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// Schedule adds a timer. The timer must not already be pending.
func (l *TimerList) Schedule(t *SoftTimer) {
	cs := EnterCritical()
	defer cs.Exit()
	l.insert(t)
}

// insert inserts a timer in sorted order by WakeTick
func (l *TimerList) insert(t *SoftTimer) {
	if l.head == nil || tickBefore(t.WakeTick, l.head.WakeTick) {
		t.Next = l.head
		l.head = t
		return
	}

	current := l.head
	for current.Next != nil && !tickBefore(t.WakeTick, current.Next.WakeTick) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Cancel removes a pending timer; it reports false if t was not pending
func (l *TimerList) Cancel(t *SoftTimer) bool {
	cs := EnterCritical()
	defer cs.Exit()

	for p := &l.head; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return true
		}
	}
	return false
}

// NextWake returns the earliest pending WakeTick
func (l *TimerList) NextWake() (uint32, bool) {
	cs := EnterCritical()
	defer cs.Exit()
	if l.head == nil {
		return 0, false
	}
	return l.head.WakeTick, true
}

// popDue unlinks and returns the earliest timer due at now, or nil
func (l *TimerList) popDue(now uint32) *SoftTimer {
	cs := EnterCritical()
	defer cs.Exit()

	t := l.head
	if t == nil || tickBefore(now, t.WakeTick) {
		return nil
	}
	l.head = t.Next
	t.Next = nil
	return t
}

// Dispatch runs every timer due at now. Handlers run with interrupts
// enabled and may reschedule by moving WakeTick and returning SF_RESCHEDULE.
// When guard is not nil it is held around every list update, but never
// while a handler runs.
func (l *TimerList) Dispatch(now uint32, guard sync.Locker) int {
	fired := 0
	for {
		if guard != nil {
			guard.Lock()
		}
		t := l.popDue(now)
		if guard != nil {
			guard.Unlock()
		}
		if t == nil {
			return fired
		}

		fired++
		if t.Handler(t) == SF_RESCHEDULE {
			if guard != nil {
				guard.Lock()
			}
			l.Schedule(t)
			if guard != nil {
				guard.Unlock()
			}
		}
	}
}
