package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
)

func createShiftHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateShiftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		staffID, err := uuid.Parse(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}

		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		if req.StartTime.IsZero() || req.EndTime.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid_shift_times", "start_time and end_time are required")
			return
		}

		window, err := svc.CreateWindow(r.Context(), schedule.CreateWindowParams{
			StaffID:   staffID,
			Date:      date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Notes:     req.Notes,
		})
		if err != nil {
			handleShiftError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toShiftWindowResponse(window))
	}
}

func getShiftHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		window, err := svc.GetWindowByID(r.Context(), id)
		if err != nil {
			handleShiftError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toShiftWindowResponse(window))
	}
}

func listShiftsHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := schedule.ListFilter{}
		f.Page, f.PageSize = parsePagination(r)

		q := r.URL.Query()
		if v := q.Get("staff_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
				return
			}
			f.StaffID = &id
		}
		if v := q.Get("start_date"); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_date", "start_date must be YYYY-MM-DD")
				return
			}
			f.DateFrom = &t
		}
		if v := q.Get("end_date"); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_date", "end_date must be YYYY-MM-DD")
				return
			}
			f.DateTo = &t
		}

		windows, total, err := svc.ListWindows(r.Context(), f)
		if err != nil {
			handleShiftError(w, err)
			return
		}

		resp := ShiftListResponse{
			Shifts:     make([]ShiftWindowResponse, 0, len(windows)),
			Total:      total,
			Page:       f.Page,
			PageSize:   f.PageSize,
			TotalPages: totalPages(total, f.PageSize),
		}
		for i := range windows {
			resp.Shifts = append(resp.Shifts, toShiftWindowResponse(&windows[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteShiftHandler(svc ShiftService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteWindow(r.Context(), id); err != nil {
			handleShiftError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleShiftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "shift_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidShift):
		writeError(w, http.StatusBadRequest, "invalid_shift", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
