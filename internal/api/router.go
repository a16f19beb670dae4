package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/booking"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
)

// BookingService is the appointment surface the HTTP layer depends on.
// Satisfied by booking.Service.
type BookingService interface {
	Create(ctx context.Context, p booking.CreateParams) (*booking.AppointmentDetail, error)
	Get(ctx context.Context, id uuid.UUID) (*booking.AppointmentDetail, error)
	List(ctx context.Context, f booking.ListFilter) ([]booking.AppointmentDetail, int, error)
	Update(ctx context.Context, id uuid.UUID, p booking.UpdateParams) (*booking.AppointmentDetail, error)
	SetStatus(ctx context.Context, id uuid.UUID, status booking.Status) (*booking.AppointmentDetail, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

// AvailabilityService answers the read-only booking views. Satisfied by
// booking.Availability.
type AvailabilityService interface {
	ListAvailableDoctors(ctx context.Context, date time.Time) ([]booking.DoctorAvailability, error)
	ListSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, step time.Duration) (*booking.SlotBreakdown, error)
}

// ShiftService is the shift calendar surface. Satisfied by schedule.Service.
type ShiftService interface {
	CreateWindow(ctx context.Context, p schedule.CreateWindowParams) (*schedule.ShiftWindow, error)
	GetWindowByID(ctx context.Context, id uuid.UUID) (*schedule.ShiftWindow, error)
	ListWindows(ctx context.Context, f schedule.ListFilter) ([]schedule.ShiftWindow, int, error)
	DeleteWindow(ctx context.Context, id uuid.UUID) error
}

type RouterConfig struct {
	Bookings     BookingService
	Availability AvailabilityService
	Shifts       ShiftService

	DefaultSlotStep time.Duration

	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/appointments", createAppointmentHandler(cfg.Bookings))
	r.Get("/appointments", listAppointmentsHandler(cfg.Bookings))
	r.Get("/appointments/available-doctors", availableDoctorsHandler(cfg.Availability))
	r.Get("/appointments/doctors/{doctorID}/available-slots", availableSlotsHandler(cfg.Availability, cfg.DefaultSlotStep))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Bookings))
	r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Bookings))
	r.Patch("/appointments/{id}/status", setAppointmentStatusHandler(cfg.Bookings))
	r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Bookings))

	r.Post("/shifts", createShiftHandler(cfg.Shifts))
	r.Get("/shifts", listShiftsHandler(cfg.Shifts))
	r.Get("/shifts/{id}", getShiftHandler(cfg.Shifts))
	r.Delete("/shifts/{id}", deleteShiftHandler(cfg.Shifts))

	return r
}
