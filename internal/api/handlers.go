package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/booking"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	redisclient "github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/redis"
)

func createAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		if req.ScheduledAt.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", "scheduled_at is required")
			return
		}

		detail, err := svc.Create(r.Context(), booking.CreateParams{
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: req.ScheduledAt,
			Reason:      req.Reason,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(detail))
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := booking.ListFilter{}
		f.Page, f.PageSize = parsePagination(r)

		q := r.URL.Query()
		if v := q.Get("patient_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			f.PatientID = &id
		}
		if v := q.Get("doctor_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			f.DoctorID = &id
		}
		if v := q.Get("status"); v != "" {
			status := booking.Status(v)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown appointment status")
				return
			}
			f.Status = &status
		}
		if v := q.Get("date_from"); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date_from", "date_from must be YYYY-MM-DD")
				return
			}
			f.DateFrom = &t
		}
		if v := q.Get("date_to"); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date_to", "date_to must be YYYY-MM-DD")
				return
			}
			f.DateTo = &t
		}

		details, total, err := svc.List(r.Context(), f)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := AppointmentListResponse{
			Appointments: make([]AppointmentResponse, 0, len(details)),
			Total:        total,
			Page:         f.Page,
			PageSize:     f.PageSize,
			TotalPages:   totalPages(total, f.PageSize),
		}
		for i := range details {
			resp.Appointments = append(resp.Appointments, toAppointmentResponse(&details[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(detail))
	}
}

func updateAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		params := booking.UpdateParams{
			ScheduledAt: req.ScheduledAt,
			Reason:      req.Reason,
		}
		if req.Status != nil {
			status := booking.Status(*req.Status)
			params.Status = &status
		}

		detail, err := svc.Update(r.Context(), id, params)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(detail))
	}
}

func setAppointmentStatusHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req SetStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		detail, err := svc.SetStatus(r.Context(), id, booking.Status(req.Status))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(detail))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func availableDoctorsHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := parseDateParam(w, r, "date")
		if !ok {
			return
		}

		doctors, err := svc.ListAvailableDoctors(r.Context(), date)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]AvailableDoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, AvailableDoctorResponse{
				DoctorID:           d.Doctor.ID,
				Name:               d.Doctor.DisplayName(),
				Department:         d.Doctor.Department,
				ShiftStart:         d.Window.StartTime,
				ShiftEnd:           d.Window.EndTime,
				ActiveAppointments: d.ActiveAppointments,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func availableSlotsHandler(svc AvailabilityService, defaultStep time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		date, ok := parseDateParam(w, r, "date")
		if !ok {
			return
		}

		step := defaultStep
		if v := r.URL.Query().Get("slot_duration"); v != "" {
			minutes, err := strconv.Atoi(v)
			if err != nil || minutes <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_slot_duration", "slot_duration must be a positive number of minutes")
				return
			}
			step = time.Duration(minutes) * time.Minute
		}

		breakdown, err := svc.ListSlots(r.Context(), doctorID, date, step)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := AvailableSlotsResponse{
			DoctorID:  breakdown.DoctorID,
			Date:      breakdown.Date.Format(dateLayout),
			HasShift:  breakdown.HasShift,
			Available: breakdown.Available,
			Booked:    breakdown.Booked,
		}
		if breakdown.Window != nil {
			resp.ShiftStart = &breakdown.Window.StartTime
			resp.ShiftEnd = &breakdown.Window.EndTime
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, directory.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, directory.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrDoctorUnavailable):
		writeError(w, http.StatusBadRequest, "doctor_unavailable", err.Error())
	case errors.Is(err, booking.ErrOutsideShiftHours):
		writeError(w, http.StatusBadRequest, "outside_shift_hours", err.Error())
	case errors.Is(err, booking.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, booking.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseDateParam(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		writeError(w, http.StatusBadRequest, "missing_"+key, key+" query parameter is required (YYYY-MM-DD)")
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 10

	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
