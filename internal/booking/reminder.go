package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/notify"
)

// Reminders emails patients about upcoming appointments. Intended to be
// called periodically by the reminder worker; each appointment is reminded
// at most once.
type Reminders struct {
	repo     Repository
	dir      directory.Directory
	notifier notify.Notifier
	logger   zerolog.Logger
}

func NewReminders(repo Repository, dir directory.Directory, notifier notify.Notifier, logger zerolog.Logger) *Reminders {
	return &Reminders{
		repo:     repo,
		dir:      dir,
		notifier: notifier,
		logger:   logger,
	}
}

// RunOnce finds active appointments starting within the window that have not
// been reminded yet and notifies their patients. Delivery failures are
// logged and the appointment stays due for the next run.
func (r *Reminders) RunOnce(ctx context.Context, now time.Time, window time.Duration) error {
	due, err := r.repo.ListDueReminders(ctx, now, window)
	if err != nil {
		return fmt.Errorf("find due reminders: %w", err)
	}

	for _, appt := range due {
		patient, err := r.dir.ResolvePatient(ctx, appt.PatientID)
		if err != nil {
			if errors.Is(err, directory.ErrPatientNotFound) {
				// Patient record is gone; mark so we stop retrying.
				r.markReminded(ctx, appt.ID)
			} else {
				// Transient lookup failure; the appointment stays due.
				r.logger.Error().Err(err).
					Str("appointment_id", appt.ID.String()).
					Msg("failed to resolve patient for reminder")
			}
			continue
		}
		if patient.Email == nil {
			// No reachable contact; mark so we stop retrying.
			r.markReminded(ctx, appt.ID)
			continue
		}

		details := notify.BookingDetails{
			ScheduledAt: appt.ScheduledAt,
			Reason:      appt.Reason,
		}
		if doctor, err := r.dir.ResolveDoctor(ctx, appt.DoctorID); err == nil {
			details.DoctorName = doctor.DisplayName()
			if doctor.Department != nil {
				details.Department = *doctor.Department
			}
		}

		to := notify.Contact{Email: *patient.Email, Name: patient.DisplayName()}
		if err := r.notifier.NotifyReminder(ctx, to, details); err != nil {
			r.logger.Error().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("failed to send reminder")
			continue
		}

		r.markReminded(ctx, appt.ID)
	}

	return nil
}

func (r *Reminders) markReminded(ctx context.Context, id uuid.UUID) {
	if err := r.repo.MarkReminded(ctx, id); err != nil {
		r.logger.Error().Err(err).
			Str("appointment_id", id.String()).
			Msg("failed to mark reminder sent")
	}
}
