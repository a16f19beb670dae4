package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(start, end time.Time) ShiftWindow {
	return ShiftWindow{StartTime: start, EndTime: end}
}

func TestGenerateSlotsMorningShift(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	slots := GenerateSlots(window(start, end), 30*time.Minute)

	require.Len(t, slots, 6)
	assert.Equal(t, start, slots[0])
	assert.Equal(t, time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC), slots[5])
	// The window end is not itself bookable.
	for _, s := range slots {
		assert.True(t, s.Before(end))
	}
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	w := window(start, end)

	first := GenerateSlots(w, 20*time.Minute)
	second := GenerateSlots(w, 20*time.Minute)

	assert.Equal(t, first, second)
	assert.Len(t, first, int(end.Sub(start)/(20*time.Minute)))
}

func TestGenerateSlotsUnevenStep(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	// 45m step into a 1h window: only the start fits.
	slots := GenerateSlots(window(start, end), 45*time.Minute)

	require.Len(t, slots, 2)
	assert.Equal(t, start, slots[0])
	assert.Equal(t, start.Add(45*time.Minute), slots[1])
}

func TestGenerateSlotsDegenerateInputs(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Empty(t, GenerateSlots(window(start, end), 0))
	assert.Empty(t, GenerateSlots(window(start, end), -time.Minute))
	assert.Empty(t, GenerateSlots(window(end, start), 30*time.Minute))
	assert.Empty(t, GenerateSlots(window(start, start), 30*time.Minute))
}

func TestWindowContainsBoundsInclusive(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	w := window(start, end)

	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(end))
	assert.True(t, w.Contains(start.Add(time.Hour)))
	assert.False(t, w.Contains(start.Add(-time.Minute)))
	assert.False(t, w.Contains(end.Add(time.Minute)))
}
