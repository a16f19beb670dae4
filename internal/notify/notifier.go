package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Contact is where a notification is delivered.
type Contact struct {
	Email string
	Name  string
}

// BookingDetails carries the appointment facts notifications are built from.
type BookingDetails struct {
	DoctorName  string
	Department  string
	ScheduledAt time.Time
	Reason      string
}

// Notifier announces booking lifecycle events to patients. Every
// implementation is fire-and-forget from the caller's point of view: the
// booking engine logs failures and never rolls back on them.
type Notifier interface {
	NotifyBooked(ctx context.Context, to Contact, details BookingDetails) error
	NotifyStatusChanged(ctx context.Context, to Contact, oldStatus, newStatus string, details BookingDetails) error
	NotifyReminder(ctx context.Context, to Contact, details BookingDetails) error
}

// LogNotifier only records notifications in the log. Used in dev and in
// deployments without an email provider configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyBooked(ctx context.Context, to Contact, details BookingDetails) error {
	n.logger.Info().
		Str("to", to.Email).
		Str("doctor", details.DoctorName).
		Time("scheduled_at", details.ScheduledAt).
		Msg("notify: appointment booked")
	return nil
}

func (n *LogNotifier) NotifyStatusChanged(ctx context.Context, to Contact, oldStatus, newStatus string, details BookingDetails) error {
	n.logger.Info().
		Str("to", to.Email).
		Str("old_status", oldStatus).
		Str("new_status", newStatus).
		Msg("notify: appointment status changed")
	return nil
}

func (n *LogNotifier) NotifyReminder(ctx context.Context, to Contact, details BookingDetails) error {
	n.logger.Info().
		Str("to", to.Email).
		Time("scheduled_at", details.ScheduledAt).
		Msg("notify: appointment reminder")
	return nil
}
