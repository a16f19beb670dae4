package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/metrics"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/notify"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
	redisclient "github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/redis"
)

var (
	ErrSlotTaken         = errors.New("appointment slot already taken")
	ErrDoctorUnavailable = errors.New("doctor is not available on this date")
	ErrOutsideShiftHours = errors.New("appointment time is outside shift hours")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidStatus     = errors.New("invalid appointment status")
)

// ShiftCalendar resolves a staff member's working window for a date.
// Satisfied by schedule.Service.
type ShiftCalendar interface {
	GetWindow(ctx context.Context, staffID uuid.UUID, date time.Time) (*schedule.ShiftWindow, error)
}

// Service is the booking engine: it owns appointment creation, modification,
// status transitions, and cancellation, and enforces the shift-bounds and
// no-double-booking invariants.
type Service struct {
	repo     Repository
	calendar ShiftCalendar
	locker   redisclient.Locker
	dir      directory.Directory
	notifier notify.Notifier
	metrics  *metrics.BookingMetrics
	logger   zerolog.Logger
}

func NewService(
	repo Repository,
	calendar ShiftCalendar,
	locker redisclient.Locker,
	dir directory.Directory,
	notifier notify.Notifier,
	m *metrics.BookingMetrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		calendar: calendar,
		locker:   locker,
		dir:      dir,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

type CreateParams struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Reason      string
}

// Create books a new appointment. The requested instant must fall inside an
// active shift window for the doctor (bounds inclusive) and must not collide
// with another active appointment. The distributed lock narrows the
// check-then-act window; the storage uniqueness constraint closes it.
func (s *Service) Create(ctx context.Context, p CreateParams) (*AppointmentDetail, error) {
	start := time.Now()

	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		s.observe("create", "invalid", start)
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	patient, err := s.dir.ResolvePatient(ctx, p.PatientID)
	if err != nil {
		s.observe("create", resolveOutcome(err), start)
		return nil, err
	}

	doctor, err := s.dir.ResolveDoctor(ctx, p.DoctorID)
	if err != nil {
		s.observe("create", resolveOutcome(err), start)
		return nil, err
	}

	if err := s.validateAgainstShift(ctx, p.DoctorID, p.ScheduledAt); err != nil {
		s.observe("create", "rejected", start)
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, p.DoctorID, p.ScheduledAt, func(lockCtx context.Context) error {
		conflict, err := s.repo.HasConflict(lockCtx, p.DoctorID, p.ScheduledAt, nil)
		if err != nil {
			return fmt.Errorf("check conflict: %w", err)
		}
		if conflict {
			return ErrSlotTaken
		}

		appt, err := s.repo.Create(lockCtx, &Appointment{
			PatientID:   p.PatientID,
			DoctorID:    p.DoctorID,
			ScheduledAt: p.ScheduledAt,
			Reason:      reason,
			Status:      StatusPending,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.observe("create", "contended", start)
			return nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotTaken) {
			s.observe("create", "conflict", start)
			return nil, err
		}
		s.observe("create", "error", start)
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", created.DoctorID.String()).
		Time("scheduled_at", created.ScheduledAt).
		Msg("appointment created")

	s.notifyBooked(ctx, created, patient, doctor)

	s.observe("create", "ok", start)
	return &AppointmentDetail{Appointment: *created, Patient: patient, Doctor: doctor}, nil
}

type UpdateParams struct {
	ScheduledAt *time.Time
	Reason      *string
	Status      *Status
}

// Update applies a partial change set. A changed instant is re-validated
// against the doctor's shift and the conflict index, excluding the
// appointment itself so a reschedule cannot collide with its own row.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*AppointmentDetail, error) {
	start := time.Now()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.observe("update", "not_found", start)
		return nil, err
	}

	if p.Reason != nil {
		reason := strings.TrimSpace(*p.Reason)
		if reason == "" {
			s.observe("update", "invalid", start)
			return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
		}
		appt.Reason = reason
	}

	if p.Status != nil {
		if !p.Status.Valid() {
			s.observe("update", "invalid", start)
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
		}
		appt.Status = *p.Status
	}

	reschedule := p.ScheduledAt != nil && !p.ScheduledAt.Equal(appt.ScheduledAt)
	if reschedule {
		newAt := *p.ScheduledAt

		if err := s.validateAgainstShift(ctx, appt.DoctorID, newAt); err != nil {
			s.observe("update", "rejected", start)
			return nil, err
		}

		err = s.locker.WithBookingLock(ctx, appt.DoctorID, newAt, func(lockCtx context.Context) error {
			conflict, err := s.repo.HasConflict(lockCtx, appt.DoctorID, newAt, &appt.ID)
			if err != nil {
				return fmt.Errorf("check conflict: %w", err)
			}
			if conflict {
				return ErrSlotTaken
			}

			appt.ScheduledAt = newAt
			updated, err := s.repo.Update(lockCtx, appt)
			if err != nil {
				return fmt.Errorf("update appointment: %w", err)
			}
			appt = updated
			return nil
		})
		if err != nil {
			if errors.Is(err, redisclient.ErrLockNotAcquired) {
				s.observe("update", "contended", start)
				return nil, ErrSlotBeingBooked
			}
			if errors.Is(err, ErrSlotTaken) {
				s.observe("update", "conflict", start)
				return nil, err
			}
			s.observe("update", "error", start)
			return nil, err
		}
	} else {
		updated, err := s.repo.Update(ctx, appt)
		if err != nil {
			s.observe("update", "error", start)
			return nil, fmt.Errorf("update appointment: %w", err)
		}
		appt = updated
	}

	s.observe("update", "ok", start)
	return s.hydrate(ctx, appt), nil
}

// SetStatus overwrites the appointment status. There is no transition table:
// any status may follow any other, matching how the reception desk actually
// corrects records.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*AppointmentDetail, error) {
	start := time.Now()

	if !newStatus.Valid() {
		s.observe("set_status", "invalid", start)
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.observe("set_status", "not_found", start)
		return nil, err
	}

	oldStatus := appt.Status

	updated, err := s.applyTransition(ctx, id, transition{status: newStatus})
	if err != nil {
		s.observe("set_status", "error", start)
		return nil, err
	}

	if oldStatus != newStatus {
		s.notifyStatusChanged(ctx, updated, oldStatus, newStatus)
	}

	s.observe("set_status", "ok", start)
	return s.hydrate(ctx, updated), nil
}

// Cancel retires an appointment: soft-delete marker set, status forced to
// cancelled. A second Cancel no longer finds an active row and fails with
// not-found.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	if _, err := s.applyTransition(ctx, id, transition{status: StatusCancelled, retire: true}); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.observe("cancel", "not_found", start)
		} else {
			s.observe("cancel", "error", start)
		}
		return err
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")
	s.observe("cancel", "ok", start)
	return nil
}

// Get retrieves a hydrated appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, appt), nil
}

// List returns a hydrated appointment page and the total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]AppointmentDetail, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, *f.Status)
	}

	appts, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	details := make([]AppointmentDetail, 0, len(appts))
	for i := range appts {
		details = append(details, *s.hydrate(ctx, &appts[i]))
	}
	return details, total, nil
}

// transition is the single entry point for terminal-ish state changes. A
// plain status change rewrites the status column only; a cancellation also
// sets the soft-delete marker. SetStatus(cancelled) and Cancel therefore
// stay two deliberately distinct paths instead of an accidental side effect.
type transition struct {
	status Status
	retire bool
}

func (s *Service) applyTransition(ctx context.Context, id uuid.UUID, tr transition) (*Appointment, error) {
	if tr.retire {
		if err := s.repo.Cancel(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s.repo.SetStatus(ctx, id, tr.status)
}

// validateAgainstShift enforces the shift-window invariant for an instant.
func (s *Service) validateAgainstShift(ctx context.Context, doctorID uuid.UUID, at time.Time) error {
	date := at.UTC().Truncate(24 * time.Hour)

	window, err := s.calendar.GetWindow(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, schedule.ErrWindowNotFound) {
			return ErrDoctorUnavailable
		}
		return fmt.Errorf("resolve shift window: %w", err)
	}

	if !window.Contains(at) {
		return fmt.Errorf("%w: appointment time must be between %s and %s",
			ErrOutsideShiftHours,
			window.StartTime.Format("15:04"),
			window.EndTime.Format("15:04"))
	}

	return nil
}

func (s *Service) hydrate(ctx context.Context, a *Appointment) *AppointmentDetail {
	detail := &AppointmentDetail{Appointment: *a}

	if patient, err := s.dir.ResolvePatient(ctx, a.PatientID); err == nil {
		detail.Patient = patient
	}
	if doctor, err := s.dir.ResolveDoctor(ctx, a.DoctorID); err == nil {
		detail.Doctor = doctor
	}
	return detail
}

func (s *Service) notifyBooked(ctx context.Context, appt *Appointment, patient *directory.PatientInfo, doctor *directory.DoctorInfo) {
	if patient == nil || patient.Email == nil {
		return
	}

	details := notify.BookingDetails{
		ScheduledAt: appt.ScheduledAt,
		Reason:      appt.Reason,
	}
	if doctor != nil {
		details.DoctorName = doctor.DisplayName()
		if doctor.Department != nil {
			details.Department = *doctor.Department
		}
	}

	to := notify.Contact{Email: *patient.Email, Name: patient.DisplayName()}
	if err := s.notifier.NotifyBooked(ctx, to, details); err != nil {
		s.metrics.ObserveNotifyFailure()
		s.logger.Error().Err(err).
			Str("appointment_id", appt.ID.String()).
			Msg("failed to send booking notification")
	}
}

func (s *Service) notifyStatusChanged(ctx context.Context, appt *Appointment, oldStatus, newStatus Status) {
	patient, err := s.dir.ResolvePatient(ctx, appt.PatientID)
	if err != nil || patient.Email == nil {
		return
	}

	details := notify.BookingDetails{
		ScheduledAt: appt.ScheduledAt,
		Reason:      appt.Reason,
	}
	if doctor, err := s.dir.ResolveDoctor(ctx, appt.DoctorID); err == nil {
		details.DoctorName = doctor.DisplayName()
		if doctor.Department != nil {
			details.Department = *doctor.Department
		}
	}

	to := notify.Contact{Email: *patient.Email, Name: patient.DisplayName()}
	if err := s.notifier.NotifyStatusChanged(ctx, to, string(oldStatus), string(newStatus), details); err != nil {
		s.metrics.ObserveNotifyFailure()
		s.logger.Error().Err(err).
			Str("appointment_id", appt.ID.String()).
			Msg("failed to send status change notification")
	}
}

func (s *Service) observe(operation, outcome string, start time.Time) {
	s.metrics.ObserveOperation(operation, outcome, time.Since(start).Seconds())
}

// resolveOutcome separates caller mistakes (unknown IDs) from
// infrastructure faults in the operation metrics.
func resolveOutcome(err error) string {
	if errors.Is(err, directory.ErrPatientNotFound) || errors.Is(err, directory.ErrDoctorNotFound) {
		return "not_found"
	}
	return "error"
}
