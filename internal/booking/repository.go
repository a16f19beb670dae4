package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

type ListFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// Repository contains all DB interactions needed by the booking engine.
// Reads and writes see only active rows (deleted_at IS NULL); cancelled
// history stays in the table for audit but never satisfies a lookup.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) (*Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)

	// Cancel sets the soft-delete marker and forces status to cancelled.
	Cancel(ctx context.Context, id uuid.UUID) error

	// HasConflict reports whether an active appointment other than exclude
	// occupies exactly this doctor/instant pair.
	HasConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude *uuid.UUID) (bool, error)

	List(ctx context.Context, f ListFilter) ([]Appointment, int, error)

	// Availability views
	CountActiveOn(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error)
	BookedInstantsOn(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]time.Time, error)

	// Reminder worker
	ListDueReminders(ctx context.Context, now time.Time, window time.Duration) ([]Appointment, error)
	MarkReminded(ctx context.Context, id uuid.UUID) error
}
