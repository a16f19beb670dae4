package notify

import (
	"fmt"
	"strings"
)

const timeLayout = "January 2, 2006 at 3:04 PM"

var statusColors = map[string]string{
	"pending":   "#f57c00",
	"confirmed": "#2196f3",
	"completed": "#4caf50",
	"cancelled": "#f44336",
}

var statusMessages = map[string]string{
	"pending":   "Your appointment is pending confirmation.",
	"confirmed": "Your appointment has been confirmed by the doctor.",
	"completed": "Your appointment has been completed. Thank you for visiting!",
	"cancelled": "Your appointment has been cancelled.",
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func detailRows(details BookingDetails) string {
	rows := fmt.Sprintf(`
		<tr><td class="label">Date &amp; Time:</td><td><strong>%s</strong></td></tr>
		<tr><td class="label">Doctor:</td><td>%s</td></tr>`,
		details.ScheduledAt.Format(timeLayout), details.DoctorName)
	if details.Department != "" {
		rows += fmt.Sprintf(`
		<tr><td class="label">Department:</td><td>%s</td></tr>`, details.Department)
	}
	if details.Reason != "" {
		rows += fmt.Sprintf(`
		<tr><td class="label">Reason:</td><td>%s</td></tr>`, details.Reason)
	}
	return rows
}

func wrapBody(heading, inner string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
	body { font-family: Arial, sans-serif; color: #1a1d23; background: #f2f4f8; }
	.container { max-width: 600px; margin: 40px auto; background: white; border-radius: 12px; overflow: hidden; }
	.header { background: #16a249; color: white; padding: 32px; text-align: center; }
	.content { padding: 32px; }
	.details { background: #f2f4f8; padding: 20px; border-radius: 8px; border-left: 4px solid #16a249; }
	.label { font-weight: 600; padding-right: 16px; }
	.footer { text-align: center; padding: 20px; color: #6c757d; font-size: 13px; }
</style>
</head>
<body>
<div class="container">
	<div class="header"><h1>%s</h1></div>
	<div class="content">%s</div>
	<div class="footer">This is an automated email. Please do not reply to this message.</div>
</div>
</body>
</html>`, heading, inner)
}

func bookedBody(patientName string, details BookingDetails) string {
	inner := fmt.Sprintf(`
		<p>Dear <strong>%s</strong>,</p>
		<p>Your appointment has been booked and is awaiting confirmation.</p>
		<div class="details"><table>%s</table></div>
		<p>Please arrive 15 minutes before your appointment time.</p>`,
		patientName, detailRows(details))
	return wrapBody("Appointment Confirmation", inner)
}

func statusChangedBody(patientName, oldStatus, newStatus string, details BookingDetails) string {
	color, ok := statusColors[newStatus]
	if !ok {
		color = "#757575"
	}
	message, ok := statusMessages[newStatus]
	if !ok {
		message = "Your appointment status has been updated."
	}

	inner := fmt.Sprintf(`
		<p>Dear <strong>%s</strong>,</p>
		<p>The status of your appointment has been updated.</p>
		<p style="text-align:center;">
			<span style="color:#757575;text-decoration:line-through;">%s</span>
			&rarr;
			<span style="color:%s;font-weight:600;">%s</span>
		</p>
		<p style="text-align:center;font-weight:600;">%s</p>
		<div class="details"><table>%s</table></div>`,
		patientName, strings.ToUpper(oldStatus), color, strings.ToUpper(newStatus), message, detailRows(details))
	return wrapBody("Appointment Status Updated", inner)
}

func reminderBody(patientName string, details BookingDetails) string {
	inner := fmt.Sprintf(`
		<p>Dear <strong>%s</strong>,</p>
		<p>This is a reminder of your upcoming appointment.</p>
		<div class="details"><table>%s</table></div>
		<p>If you can no longer attend, please cancel in advance so the slot can be rebooked.</p>`,
		patientName, detailRows(details))
	return wrapBody("Upcoming Appointment Reminder", inner)
}
