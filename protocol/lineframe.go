package protocol

import "sync/atomic"

// Receiver status bits
const (
	rxComplete = 1 << 15 // Frame ready, further bytes are dropped
	rxGotCR    = 1 << 14 // CR seen, LF must follow
	rxCountMsk = rxGotCR - 1
)

// LineReceiver assembles CR LF terminated frames from bytes delivered one
// at a time by the UART receive interrupt. Feed is the only writer while a
// frame is being assembled; once a frame completes the buffer belongs to
// the consumer until Release.
type LineReceiver struct {
	buf    [LineMax]byte
	status uint32
}

// Feed consumes one received byte. It reports true when the byte completed
// a frame.
func (r *LineReceiver) Feed(b byte) bool {
	st := atomic.LoadUint32(&r.status)
	if st&rxComplete != 0 {
		return false
	}

	if st&rxGotCR != 0 {
		if b != LF {
			// CR without LF, start over
			atomic.StoreUint32(&r.status, 0)
			return false
		}
		atomic.StoreUint32(&r.status, st|rxComplete)
		return true
	}

	if b == CR {
		atomic.StoreUint32(&r.status, st|rxGotCR)
		return false
	}

	n := st & rxCountMsk
	r.buf[n] = b
	n++
	if n > LineMax-1 {
		// Overflow, start over
		n = 0
	}
	atomic.StoreUint32(&r.status, n)
	return false
}

// Write feeds every byte of p, so a receiver can sit behind an io.Writer
func (r *LineReceiver) Write(p []byte) (int, error) {
	for _, b := range p {
		r.Feed(b)
	}
	return len(p), nil
}

// Frame returns the completed frame without its CR LF. The slice is valid
// until Release.
func (r *LineReceiver) Frame() ([]byte, bool) {
	st := atomic.LoadUint32(&r.status)
	if st&rxComplete == 0 {
		return nil, false
	}
	return r.buf[:st&rxCountMsk], true
}

// Pending returns how many bytes of an unfinished frame have been received
func (r *LineReceiver) Pending() int {
	st := atomic.LoadUint32(&r.status)
	if st&rxComplete != 0 {
		return 0
	}
	return int(st & rxCountMsk)
}

// Release hands the buffer back to Feed for the next frame
func (r *LineReceiver) Release() {
	atomic.StoreUint32(&r.status, 0)
}
