package schedule

import "time"

// GenerateSlots steps through a shift window at a fixed duration and returns
// every bookable instant: start, start+step, ... strictly before end. The
// result is deterministic for the same inputs.
//
// A non-positive step or an inverted window yields no slots. The window
// invariant (start < end) should make the latter unreachable, but a deleted
// or hand-edited row must not spin this into an infinite loop.
func GenerateSlots(window ShiftWindow, step time.Duration) []time.Time {
	if step <= 0 || !window.StartTime.Before(window.EndTime) {
		return nil
	}

	n := int(window.EndTime.Sub(window.StartTime) / step)
	slots := make([]time.Time, 0, n)
	for t := window.StartTime; t.Before(window.EndTime); t = t.Add(step) {
		slots = append(slots, t)
	}
	return slots
}
