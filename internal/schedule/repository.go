package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWindowNotFound = errors.New("shift window not found")
)

type ListFilter struct {
	StaffID  *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// Repository contains all DB interactions needed by the shift calendar.
type Repository interface {
	// GetWindow returns the active window for a staff member on a date.
	// When the scheduling side has allowed several windows for the same
	// day, the earliest-starting one wins.
	GetWindow(ctx context.Context, staffID uuid.UUID, date time.Time) (*ShiftWindow, error)
	GetWindowByID(ctx context.Context, id uuid.UUID) (*ShiftWindow, error)

	CreateWindow(ctx context.Context, w *ShiftWindow) (*ShiftWindow, error)
	ListWindows(ctx context.Context, f ListFilter) ([]ShiftWindow, int, error)
	SoftDeleteWindow(ctx context.Context, id uuid.UUID) error

	// ListWindowsOn returns every doctor's active window on a date, used
	// by the availability views.
	ListWindowsOn(ctx context.Context, date time.Time) ([]ShiftWindow, error)
}
