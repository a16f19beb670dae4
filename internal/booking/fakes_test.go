package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/metrics"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/notify"
	redisclient "github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/redis"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
)

// memRepo is an in-memory Repository that enforces the same active-row
// uniqueness the partial index does, so lost-race behavior is testable.
type memRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*Appointment
	order []uuid.UUID
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[uuid.UUID]*Appointment{}}
}

func (r *memRepo) activeConflict(doctorID uuid.UUID, at time.Time, exclude *uuid.UUID) bool {
	for _, a := range r.rows {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if a.Active() && a.DoctorID == doctorID && a.ScheduledAt.Equal(at) {
			return true
		}
	}
	return false
}

func (r *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok || a.DeletedAt != nil {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.Status != StatusCancelled && r.activeConflict(a.DoctorID, a.ScheduledAt, nil) {
		return nil, ErrSlotTaken
	}
	cp := *a
	cp.ID = uuid.New()
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.rows[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	out := cp
	return &out, nil
}

func (r *memRepo) Update(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[a.ID]
	if !ok || existing.DeletedAt != nil {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != StatusCancelled && r.activeConflict(a.DoctorID, a.ScheduledAt, &a.ID) {
		return nil, ErrSlotTaken
	}
	cp := *a
	cp.UpdatedAt = time.Now()
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok || a.DeletedAt != nil {
		return nil, ErrAppointmentNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *memRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok || a.DeletedAt != nil {
		return ErrAppointmentNotFound
	}
	now := time.Now()
	a.DeletedAt = &now
	a.Status = StatusCancelled
	a.UpdatedAt = now
	return nil
}

func (r *memRepo) HasConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeConflict(doctorID, at, exclude), nil
}

func (r *memRepo) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Appointment
	for _, id := range r.order {
		a := r.rows[id]
		if a.DeletedAt != nil {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.DateFrom != nil && a.ScheduledAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && !a.ScheduledAt.Before(f.DateTo.Add(24*time.Hour)) {
			continue
		}
		matched = append(matched, *a)
	}

	total := len(matched)
	offset := (f.Page - 1) * f.PageSize
	if offset >= total {
		return nil, total, nil
	}
	end := offset + f.PageSize
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *memRepo) CountActiveOn(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, a := range r.rows {
		if a.Active() && a.DoctorID == doctorID && sameDay(a.ScheduledAt, date) {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) BookedInstantsOn(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []time.Time
	for _, a := range r.rows {
		if a.Active() && a.DoctorID == doctorID && sameDay(a.ScheduledAt, date) {
			result = append(result, a.ScheduledAt)
		}
	}
	return result, nil
}

func (r *memRepo) ListDueReminders(ctx context.Context, now time.Time, window time.Duration) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Appointment
	for _, a := range r.rows {
		if a.Active() && a.RemindedAt == nil && a.ScheduledAt.After(now) && !a.ScheduledAt.After(now.Add(window)) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memRepo) MarkReminded(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.rows[id]; ok && a.DeletedAt == nil {
		now := time.Now()
		a.RemindedAt = &now
	}
	return nil
}

// operationCount reads one cell of the booking operations counter.
func operationCount(t *testing.T, reg *prometheus.Registry, operation, outcome string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "hospital_booking_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["operation"] == operation && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func sameDay(t, date time.Time) bool {
	d := date.UTC()
	u := t.UTC()
	return u.Year() == d.Year() && u.YearDay() == d.YearDay()
}

// memCalendar serves shift windows keyed by staff and date.
type memCalendar struct {
	windows []schedule.ShiftWindow
}

func (c *memCalendar) add(staffID uuid.UUID, start, end time.Time) {
	c.windows = append(c.windows, schedule.ShiftWindow{
		ID:        uuid.New(),
		StaffID:   staffID,
		Date:      start.UTC().Truncate(24 * time.Hour),
		StartTime: start,
		EndTime:   end,
	})
}

func (c *memCalendar) GetWindow(ctx context.Context, staffID uuid.UUID, date time.Time) (*schedule.ShiftWindow, error) {
	for i := range c.windows {
		w := c.windows[i]
		if w.StaffID == staffID && sameDay(w.Date, date) {
			return &w, nil
		}
	}
	return nil, schedule.ErrWindowNotFound
}

func (c *memCalendar) ListWindowsOn(ctx context.Context, date time.Time) ([]schedule.ShiftWindow, error) {
	var result []schedule.ShiftWindow
	for _, w := range c.windows {
		if sameDay(w.Date, date) {
			result = append(result, w)
		}
	}
	return result, nil
}

// passLocker runs callbacks inline; held keys simulate contention.
type passLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newPassLocker() *passLocker {
	return &passLocker{held: map[string]bool{}}
}

func (l *passLocker) WithBookingLock(ctx context.Context, doctorID uuid.UUID, at time.Time, fn func(ctx context.Context) error) error {
	key := doctorID.String() + at.UTC().String()
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()

	return fn(ctx)
}

// memDirectory resolves doctors/patients from maps.
type memDirectory struct {
	doctors  map[uuid.UUID]*directory.DoctorInfo
	patients map[uuid.UUID]*directory.PatientInfo
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		doctors:  map[uuid.UUID]*directory.DoctorInfo{},
		patients: map[uuid.UUID]*directory.PatientInfo{},
	}
}

func (d *memDirectory) addDoctor(department string) uuid.UUID {
	id := uuid.New()
	dept := department
	d.doctors[id] = &directory.DoctorInfo{
		ID:         id,
		FirstName:  "Asha",
		LastName:   "Okafor",
		Department: &dept,
	}
	return id
}

func (d *memDirectory) addPatient(email string) uuid.UUID {
	id := uuid.New()
	d.patients[id] = &directory.PatientInfo{
		ID:        id,
		FirstName: "Jordan",
		LastName:  "Reyes",
		Email:     &email,
	}
	return id
}

func (d *memDirectory) ResolveDoctor(ctx context.Context, id uuid.UUID) (*directory.DoctorInfo, error) {
	if info, ok := d.doctors[id]; ok {
		return info, nil
	}
	return nil, directory.ErrDoctorNotFound
}

func (d *memDirectory) ResolvePatient(ctx context.Context, id uuid.UUID) (*directory.PatientInfo, error) {
	if info, ok := d.patients[id]; ok {
		return info, nil
	}
	return nil, directory.ErrPatientNotFound
}

// memNotifier records deliveries and can be told to fail.
type memNotifier struct {
	mu      sync.Mutex
	booked  []notify.BookingDetails
	changes []string
	fail    error
}

func (n *memNotifier) NotifyBooked(ctx context.Context, to notify.Contact, details notify.BookingDetails) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.booked = append(n.booked, details)
	return nil
}

func (n *memNotifier) NotifyStatusChanged(ctx context.Context, to notify.Contact, oldStatus, newStatus string, details notify.BookingDetails) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.changes = append(n.changes, oldStatus+"->"+newStatus)
	return nil
}

func (n *memNotifier) NotifyReminder(ctx context.Context, to notify.Contact, details notify.BookingDetails) error {
	return nil
}

type fixture struct {
	svc      *Service
	avail    *Availability
	repo     *memRepo
	calendar *memCalendar
	dir      *memDirectory
	notifier *memNotifier
	locker   *passLocker
	registry *prometheus.Registry

	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture() *fixture {
	repo := newMemRepo()
	calendar := &memCalendar{}
	dir := newMemDirectory()
	notifier := &memNotifier{}
	locker := newPassLocker()
	registry := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(registry)

	f := &fixture{
		svc:      NewService(repo, calendar, locker, dir, notifier, m, zerolog.Nop()),
		avail:    NewAvailability(calendar, repo, dir),
		repo:     repo,
		calendar: calendar,
		dir:      dir,
		notifier: notifier,
		locker:   locker,
		registry: registry,
	}
	f.patientID = dir.addPatient("jordan.reyes@example.com")
	f.doctorID = dir.addDoctor("Cardiology")
	return f
}
