package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
)

// WindowSource is the shift calendar surface the availability views need.
// Satisfied by schedule.Service.
type WindowSource interface {
	GetWindow(ctx context.Context, staffID uuid.UUID, date time.Time) (*schedule.ShiftWindow, error)
	ListWindowsOn(ctx context.Context, date time.Time) ([]schedule.ShiftWindow, error)
}

// Availability answers the read-only booking questions: who works on a date,
// and which slots are free. It never mutates anything.
type Availability struct {
	windows WindowSource
	repo    Repository
	dir     directory.Directory
}

func NewAvailability(windows WindowSource, repo Repository, dir directory.Directory) *Availability {
	return &Availability{
		windows: windows,
		repo:    repo,
		dir:     dir,
	}
}

// ListAvailableDoctors reports every doctor with an active shift window on
// the date, along with their active appointment count. Windows belonging to
// staff the directory does not know as doctors are skipped.
func (a *Availability) ListAvailableDoctors(ctx context.Context, date time.Time) ([]DoctorAvailability, error) {
	windows, err := a.windows.ListWindowsOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list shift windows: %w", err)
	}

	result := make([]DoctorAvailability, 0, len(windows))
	for _, w := range windows {
		doctor, err := a.dir.ResolveDoctor(ctx, w.StaffID)
		if err != nil {
			if errors.Is(err, directory.ErrDoctorNotFound) {
				continue
			}
			return nil, err
		}

		count, err := a.repo.CountActiveOn(ctx, w.StaffID, date)
		if err != nil {
			return nil, err
		}

		result = append(result, DoctorAvailability{
			Doctor:             doctor,
			Window:             w,
			ActiveAppointments: count,
		})
	}

	return result, nil
}

// ListSlots generates the doctor's slot grid for the date and partitions it
// into free and booked instants. A day without an active window is a valid
// "no shift" answer, not an error.
func (a *Availability) ListSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, step time.Duration) (*SlotBreakdown, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", ErrInvalidInput)
	}

	if _, err := a.dir.ResolveDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	window, err := a.windows.GetWindow(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, schedule.ErrWindowNotFound) {
			return &SlotBreakdown{
				DoctorID:  doctorID,
				Date:      date,
				HasShift:  false,
				Available: []time.Time{},
				Booked:    []time.Time{},
			}, nil
		}
		return nil, fmt.Errorf("resolve shift window: %w", err)
	}

	instants, err := a.repo.BookedInstantsOn(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked instants: %w", err)
	}

	taken := make(map[int64]struct{}, len(instants))
	for _, t := range instants {
		taken[t.UnixNano()] = struct{}{}
	}

	breakdown := &SlotBreakdown{
		DoctorID:  doctorID,
		Date:      date,
		HasShift:  true,
		Window:    window,
		Available: []time.Time{},
		Booked:    []time.Time{},
	}

	for _, slot := range schedule.GenerateSlots(*window, step) {
		if _, ok := taken[slot.UnixNano()]; ok {
			breakdown.Booked = append(breakdown.Booked, slot)
		} else {
			breakdown.Available = append(breakdown.Available, slot)
		}
	}

	return breakdown, nil
}
