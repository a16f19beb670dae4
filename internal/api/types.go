package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/booking"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
)

const dateLayout = "2006-01-02"

type CreateAppointmentRequest struct {
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
}

type UpdateAppointmentRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	PatientName *string   `json:"patient_name,omitempty"`
	DoctorName  *string   `json:"doctor_name,omitempty"`
	Department  *string   `json:"department,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAppointmentResponse(d *booking.AppointmentDetail) AppointmentResponse {
	resp := AppointmentResponse{
		ID:          d.ID,
		PatientID:   d.PatientID,
		DoctorID:    d.DoctorID,
		ScheduledAt: d.ScheduledAt,
		Reason:      d.Reason,
		Status:      string(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Patient != nil {
		name := d.Patient.DisplayName()
		resp.PatientName = &name
	}
	if d.Doctor != nil {
		name := d.Doctor.DisplayName()
		resp.DoctorName = &name
		resp.Department = d.Doctor.Department
	}
	return resp
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
}

type CreateShiftRequest struct {
	StaffID   string    `json:"staff_id"`
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes,omitempty"`
}

type ShiftWindowResponse struct {
	ID        uuid.UUID `json:"id"`
	StaffID   uuid.UUID `json:"staff_id"`
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toShiftWindowResponse(w *schedule.ShiftWindow) ShiftWindowResponse {
	return ShiftWindowResponse{
		ID:        w.ID,
		StaffID:   w.StaffID,
		Date:      w.Date.Format(dateLayout),
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		Notes:     w.Notes,
		CreatedAt: w.CreatedAt,
	}
}

type ShiftListResponse struct {
	Shifts     []ShiftWindowResponse `json:"shifts"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

type AvailableDoctorResponse struct {
	DoctorID           uuid.UUID `json:"doctor_id"`
	Name               string    `json:"name"`
	Department         *string   `json:"department,omitempty"`
	ShiftStart         time.Time `json:"shift_start"`
	ShiftEnd           time.Time `json:"shift_end"`
	ActiveAppointments int       `json:"active_appointments"`
}

type AvailableSlotsResponse struct {
	DoctorID   uuid.UUID   `json:"doctor_id"`
	Date       string      `json:"date"`
	HasShift   bool        `json:"has_shift"`
	ShiftStart *time.Time  `json:"shift_start,omitempty"`
	ShiftEnd   *time.Time  `json:"shift_end,omitempty"`
	Available  []time.Time `json:"available_slots"`
	Booked     []time.Time `json:"booked_slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
