package schedule

import (
	"time"

	"github.com/google/uuid"
)

// ShiftWindow is one staff member's declared availability on one calendar date.
type ShiftWindow struct {
	ID        uuid.UUID
	StaffID   uuid.UUID
	Date      time.Time // calendar date, midnight UTC
	StartTime time.Time
	EndTime   time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w ShiftWindow) Contains(t time.Time) bool {
	return !t.Before(w.StartTime) && !t.After(w.EndTime)
}
