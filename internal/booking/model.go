package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is one patient's request to see one doctor at one instant.
// There is no duration column; conflicts are exact-instant matches at the
// slot granularity the appointment was booked with.
type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Reason      string
	Status      Status
	RemindedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Active reports whether the appointment still occupies its slot.
func (a Appointment) Active() bool {
	return a.DeletedAt == nil && a.Status != StatusCancelled
}

// AppointmentDetail is an appointment hydrated with directory identities.
// Either reference may be nil when the directory no longer resolves it.
type AppointmentDetail struct {
	Appointment
	Patient *directory.PatientInfo
	Doctor  *directory.DoctorInfo
}

// DoctorAvailability is one row of the available-doctors view.
type DoctorAvailability struct {
	Doctor             *directory.DoctorInfo
	Window             schedule.ShiftWindow
	ActiveAppointments int
}

// SlotBreakdown partitions a doctor's slot grid for one date.
type SlotBreakdown struct {
	DoctorID  uuid.UUID
	Date      time.Time
	HasShift  bool
	Window    *schedule.ShiftWindow
	Available []time.Time
	Booked    []time.Time
}
