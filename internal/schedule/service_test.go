package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWindowRepo struct {
	windows map[uuid.UUID]*ShiftWindow
}

func newMemWindowRepo() *memWindowRepo {
	return &memWindowRepo{windows: map[uuid.UUID]*ShiftWindow{}}
}

func (r *memWindowRepo) GetWindow(ctx context.Context, staffID uuid.UUID, date time.Time) (*ShiftWindow, error) {
	var best *ShiftWindow
	for _, w := range r.windows {
		if w.DeletedAt != nil || w.StaffID != staffID || !w.Date.Equal(date) {
			continue
		}
		if best == nil || w.StartTime.Before(best.StartTime) {
			best = w
		}
	}
	if best == nil {
		return nil, ErrWindowNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *memWindowRepo) GetWindowByID(ctx context.Context, id uuid.UUID) (*ShiftWindow, error) {
	w, ok := r.windows[id]
	if !ok || w.DeletedAt != nil {
		return nil, ErrWindowNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memWindowRepo) CreateWindow(ctx context.Context, w *ShiftWindow) (*ShiftWindow, error) {
	cp := *w
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.windows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memWindowRepo) ListWindows(ctx context.Context, f ListFilter) ([]ShiftWindow, int, error) {
	var matched []ShiftWindow
	for _, w := range r.windows {
		if w.DeletedAt != nil {
			continue
		}
		if f.StaffID != nil && w.StaffID != *f.StaffID {
			continue
		}
		matched = append(matched, *w)
	}
	return matched, len(matched), nil
}

func (r *memWindowRepo) SoftDeleteWindow(ctx context.Context, id uuid.UUID) error {
	w, ok := r.windows[id]
	if !ok || w.DeletedAt != nil {
		return ErrWindowNotFound
	}
	now := time.Now()
	w.DeletedAt = &now
	return nil
}

func (r *memWindowRepo) ListWindowsOn(ctx context.Context, date time.Time) ([]ShiftWindow, error) {
	var result []ShiftWindow
	for _, w := range r.windows {
		if w.DeletedAt == nil && w.Date.Equal(date) {
			result = append(result, *w)
		}
	}
	return result, nil
}

func TestCreateWindowRejectsInvertedBounds(t *testing.T) {
	svc := NewService(newMemWindowRepo(), zerolog.Nop())

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateWindow(context.Background(), CreateWindowParams{
		StaffID:   uuid.New(),
		Date:      date,
		StartTime: date.Add(12 * time.Hour),
		EndTime:   date.Add(9 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrInvalidShift)
}

func TestCreateWindowRejectsZeroLength(t *testing.T) {
	svc := NewService(newMemWindowRepo(), zerolog.Nop())

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	at := date.Add(9 * time.Hour)
	_, err := svc.CreateWindow(context.Background(), CreateWindowParams{
		StaffID:   uuid.New(),
		Date:      date,
		StartTime: at,
		EndTime:   at,
	})
	assert.ErrorIs(t, err, ErrInvalidShift)
}

func TestCreateAndDeleteWindow(t *testing.T) {
	repo := newMemWindowRepo()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	staffID := uuid.New()

	created, err := svc.CreateWindow(ctx, CreateWindowParams{
		StaffID:   staffID,
		Date:      date,
		StartTime: date.Add(9 * time.Hour),
		EndTime:   date.Add(12 * time.Hour),
	})
	require.NoError(t, err)

	found, err := svc.GetWindow(ctx, staffID, date)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	require.NoError(t, svc.DeleteWindow(ctx, created.ID))

	_, err = svc.GetWindow(ctx, staffID, date)
	assert.ErrorIs(t, err, ErrWindowNotFound)

	// Retiring twice is a not-found, same as appointments.
	assert.ErrorIs(t, svc.DeleteWindow(ctx, created.ID), ErrWindowNotFound)
}

func TestGetWindowPrefersEarliestStart(t *testing.T) {
	repo := newMemWindowRepo()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	staffID := uuid.New()

	_, err := svc.CreateWindow(ctx, CreateWindowParams{
		StaffID: staffID, Date: date,
		StartTime: date.Add(13 * time.Hour), EndTime: date.Add(17 * time.Hour),
	})
	require.NoError(t, err)
	early, err := svc.CreateWindow(ctx, CreateWindowParams{
		StaffID: staffID, Date: date,
		StartTime: date.Add(9 * time.Hour), EndTime: date.Add(12 * time.Hour),
	})
	require.NoError(t, err)

	found, err := svc.GetWindow(ctx, staffID, date)
	require.NoError(t, err)
	assert.Equal(t, early.ID, found.ID)
}

func TestListWindowsClampsPagination(t *testing.T) {
	repo := newMemWindowRepo()
	svc := NewService(repo, zerolog.Nop())

	_, _, err := svc.ListWindows(context.Background(), ListFilter{Page: -3, PageSize: 9999})
	require.NoError(t, err)
}
