package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidShift = errors.New("shift end time must be after start time")
)

// Service owns shift window logging. The booking engine only reads windows;
// creation and retirement happen here.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

type CreateWindowParams struct {
	StaffID   uuid.UUID
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time
	Notes     *string
}

func (s *Service) CreateWindow(ctx context.Context, p CreateWindowParams) (*ShiftWindow, error) {
	if !p.StartTime.Before(p.EndTime) {
		return nil, ErrInvalidShift
	}

	w := &ShiftWindow{
		StaffID:   p.StaffID,
		Date:      p.Date,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Notes:     p.Notes,
	}

	created, err := s.repo.CreateWindow(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("create shift window: %w", err)
	}

	s.logger.Info().
		Str("window_id", created.ID.String()).
		Str("staff_id", created.StaffID.String()).
		Time("start", created.StartTime).
		Time("end", created.EndTime).
		Msg("shift window created")

	return created, nil
}

func (s *Service) GetWindow(ctx context.Context, staffID uuid.UUID, date time.Time) (*ShiftWindow, error) {
	return s.repo.GetWindow(ctx, staffID, date)
}

func (s *Service) GetWindowByID(ctx context.Context, id uuid.UUID) (*ShiftWindow, error) {
	return s.repo.GetWindowByID(ctx, id)
}

func (s *Service) ListWindowsOn(ctx context.Context, date time.Time) ([]ShiftWindow, error) {
	return s.repo.ListWindowsOn(ctx, date)
}

func (s *Service) ListWindows(ctx context.Context, f ListFilter) ([]ShiftWindow, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}

	windows, total, err := s.repo.ListWindows(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list shift windows: %w", err)
	}
	return windows, total, nil
}

func (s *Service) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteWindow(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("window_id", id.String()).Msg("shift window retired")
	return nil
}
