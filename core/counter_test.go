package core

import "testing"

func TestElapsed(t *testing.T) {
	tests := []struct {
		name              string
		prev, now, period uint32
		want              uint32
	}{
		{"forward", 10, 20, 100, 10},
		{"no change", 5, 5, 100, 0},
		{"wrap", 90, 10, 100, 20},
		{"wrap to zero", 99, 0, 100, 1},
		{"free running wrap", 0xFFFFFFF0, 0x10, 0, 0x20},
		{"systick reload", 71990, 5, 72000, 15},
	}

	for _, tt := range tests {
		if got := Elapsed(tt.prev, tt.now, tt.period); got != tt.want {
			t.Errorf("%s: Elapsed(%d, %d, %d) = %d, expected %d",
				tt.name, tt.prev, tt.now, tt.period, got, tt.want)
		}
	}
}
