package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender is satisfied by any mail provider. SendGrid is the production
// implementation; tests use a recorder.
type EmailSender interface {
	Send(ctx context.Context, to Contact, subject, html string) error
}

// SendGridSender delivers email via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	if apiKey == "" {
		return nil
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to Contact, subject, html string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	dest := mail.NewEmail(to.Name, to.Email)
	message := mail.NewSingleEmail(from, subject, dest, "", html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

// EmailNotifier renders booking notifications as HTML email.
type EmailNotifier struct {
	sender EmailSender
	logger zerolog.Logger
}

func NewEmailNotifier(sender EmailSender, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender: sender,
		logger: logger,
	}
}

func (n *EmailNotifier) NotifyBooked(ctx context.Context, to Contact, details BookingDetails) error {
	subject := "Appointment Confirmation"
	html := bookedBody(to.Name, details)
	return n.sender.Send(ctx, to, subject, html)
}

func (n *EmailNotifier) NotifyStatusChanged(ctx context.Context, to Contact, oldStatus, newStatus string, details BookingDetails) error {
	subject := fmt.Sprintf("Appointment Status Updated - %s", titleCase(newStatus))
	html := statusChangedBody(to.Name, oldStatus, newStatus, details)
	return n.sender.Send(ctx, to, subject, html)
}

func (n *EmailNotifier) NotifyReminder(ctx context.Context, to Contact, details BookingDetails) error {
	subject := "Upcoming Appointment Reminder"
	html := reminderBody(to.Name, details)
	return n.sender.Send(ctx, to, subject, html)
}
