package protocol

import (
	"bytes"
	"testing"
)

func feedString(r *LineReceiver, s string) bool {
	done := false
	for i := 0; i < len(s); i++ {
		done = r.Feed(s[i])
	}
	return done
}

func TestLineReceiverFrame(t *testing.T) {
	var r LineReceiver

	if feedString(&r, "key1") {
		t.Fatal("Frame completed before CR LF")
	}
	if _, ok := r.Frame(); ok {
		t.Fatal("Expected no frame before CR LF")
	}
	if r.Pending() != 4 {
		t.Errorf("Expected 4 pending bytes, got %d", r.Pending())
	}

	if !feedString(&r, "\r\n") {
		t.Fatal("Expected CR LF to complete the frame")
	}
	frame, ok := r.Frame()
	if !ok || string(frame) != "key1" {
		t.Errorf("Expected frame key1, got %q (ok=%v)", frame, ok)
	}
}

func TestLineReceiverHoldsFrameUntilRelease(t *testing.T) {
	var r LineReceiver
	feedString(&r, "one\r\n")

	// Bytes arriving while a frame is held are dropped
	feedString(&r, "two\r\n")
	frame, _ := r.Frame()
	if string(frame) != "one" {
		t.Errorf("Expected held frame one, got %q", frame)
	}

	r.Release()
	if _, ok := r.Frame(); ok {
		t.Error("Expected no frame after Release")
	}

	feedString(&r, "three\r\n")
	frame, _ = r.Frame()
	if string(frame) != "three" {
		t.Errorf("Expected frame three, got %q", frame)
	}
}

func TestLineReceiverCRWithoutLF(t *testing.T) {
	var r LineReceiver

	// CR followed by anything but LF discards the partial frame
	feedString(&r, "bad\rx")
	if r.Pending() != 0 {
		t.Errorf("Expected receiver reset, got %d pending", r.Pending())
	}

	feedString(&r, "ok\r\n")
	frame, ok := r.Frame()
	if !ok || string(frame) != "ok" {
		t.Errorf("Expected frame ok, got %q (ok=%v)", frame, ok)
	}
}

func TestLineReceiverOverflow(t *testing.T) {
	var r LineReceiver

	// LineMax-1 bytes still fit
	feedString(&r, string(bytes.Repeat([]byte{'a'}, LineMax-1)))
	if r.Pending() != LineMax-1 {
		t.Fatalf("Expected %d pending, got %d", LineMax-1, r.Pending())
	}

	// One more byte overflows and resets the receiver
	r.Feed('b')
	if r.Pending() != 0 {
		t.Errorf("Expected overflow reset, got %d pending", r.Pending())
	}

	feedString(&r, "after\r\n")
	frame, _ := r.Frame()
	if string(frame) != "after" {
		t.Errorf("Expected frame after, got %q", frame)
	}
}

func TestLineReceiverWriter(t *testing.T) {
	var r LineReceiver
	n, err := r.Write([]byte("key2\r\n"))
	if err != nil || n != 6 {
		t.Fatalf("Write returned %d, %v", n, err)
	}
	frame, ok := r.Frame()
	if !ok || string(frame) != "key2" {
		t.Errorf("Expected frame key2, got %q", frame)
	}
}
