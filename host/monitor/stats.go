package monitor

import (
	"fmt"
	"io"
	"sort"
)

// Stats accumulates what the console stream says about the firmware
type Stats struct {
	Lines      int
	Restarts   int            // Banners seen
	Reports    map[int]int    // Running reports per task
	LastTick   map[int]uint32 // Last reported scheduler tick per task
	Deleted    []int          // Tasks reported deleted, in order
	KeyPresses map[int]int
	Fatal      []string

	// Drift is the library millisecond counter minus the scheduler tick
	// at the last report carrying both. With a 1 ms tick the two should
	// move together; a growing spread means one time base loses counts.
	Drift      int64
	DriftMin   int64
	DriftMax   int64
	DriftCount int
}

// NewStats creates empty statistics
func NewStats() *Stats {
	return &Stats{
		Reports:    make(map[int]int),
		LastTick:   make(map[int]uint32),
		KeyPresses: make(map[int]int),
	}
}

// Add folds one record into the statistics
func (s *Stats) Add(r Record) {
	s.Lines++
	switch r.Kind {
	case KindBanner:
		s.Restarts++
	case KindTaskRunning:
		s.Reports[r.Task]++
		s.LastTick[r.Task] = r.RTOSTick
		if r.HasHAL {
			s.addDrift(int64(r.HALTick) - int64(r.RTOSTick))
		}
	case KindTaskDeleted:
		s.Deleted = append(s.Deleted, r.Task)
	case KindKeyPressed:
		s.KeyPresses[r.Key]++
	case KindFatal:
		s.Fatal = append(s.Fatal, r.Text)
	}
}

func (s *Stats) addDrift(d int64) {
	s.Drift = d
	if s.DriftCount == 0 || d < s.DriftMin {
		s.DriftMin = d
	}
	if s.DriftCount == 0 || d > s.DriftMax {
		s.DriftMax = d
	}
	s.DriftCount++
}

// DriftSpread is how far the offset between the time bases has wandered
func (s *Stats) DriftSpread() int64 {
	return s.DriftMax - s.DriftMin
}

// Stalled returns the live tasks whose last report is more than maxGap
// ticks older than the newest tick seen
func (s *Stats) Stalled(maxGap uint32) []int {
	var newest uint32
	for _, t := range s.LastTick {
		if t > newest {
			newest = t
		}
	}

	deleted := make(map[int]bool, len(s.Deleted))
	for _, n := range s.Deleted {
		deleted[n] = true
	}

	var out []int
	for task, t := range s.LastTick {
		if !deleted[task] && newest-t > maxGap {
			out = append(out, task)
		}
	}
	sort.Ints(out)
	return out
}

// Clone returns a deep copy
func (s *Stats) Clone() *Stats {
	c := *s
	c.Reports = make(map[int]int, len(s.Reports))
	for k, v := range s.Reports {
		c.Reports[k] = v
	}
	c.LastTick = make(map[int]uint32, len(s.LastTick))
	for k, v := range s.LastTick {
		c.LastTick[k] = v
	}
	c.KeyPresses = make(map[int]int, len(s.KeyPresses))
	for k, v := range s.KeyPresses {
		c.KeyPresses[k] = v
	}
	c.Deleted = append([]int(nil), s.Deleted...)
	c.Fatal = append([]string(nil), s.Fatal...)
	return &c
}

// Print writes a summary
func (s *Stats) Print(w io.Writer) {
	fmt.Fprintln(w, "\n=== Firmware Console ===")
	fmt.Fprintf(w, "Lines: %d  Restarts: %d\n", s.Lines, s.Restarts)

	tasks := make([]int, 0, len(s.Reports))
	for task := range s.Reports {
		tasks = append(tasks, task)
	}
	sort.Ints(tasks)
	fmt.Fprintln(w)
	for _, task := range tasks {
		fmt.Fprintf(w, "  Task%d: %d reports, last tick %d\n", task, s.Reports[task], s.LastTick[task])
	}

	if len(s.Deleted) > 0 {
		fmt.Fprintf(w, "Deleted: %v\n", s.Deleted)
	}
	if s.DriftCount > 0 {
		fmt.Fprintf(w, "Drift (HAL - RTOS): now %d ms, min %d, max %d over %d samples\n",
			s.Drift, s.DriftMin, s.DriftMax, s.DriftCount)
	}
	for _, f := range s.Fatal {
		fmt.Fprintf(w, "FATAL: %s\n", f)
	}
	fmt.Fprintln(w, "========================")
}
