package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PgRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgRepositoryFrom(mock), mock
}

func TestHasConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	doctorID := uuid.New()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(doctorID, at, StatusCancelled, (*uuid.UUID)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	conflict, err := repo.HasConflict(context.Background(), doctorID, at, nil)
	require.NoError(t, err)
	assert.True(t, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasConflictExcludesOwnRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	doctorID := uuid.New()
	exclude := uuid.New()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(doctorID, at, StatusCancelled, &exclude).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	conflict, err := repo.HasConflict(context.Background(), doctorID, at, &exclude)
	require.NoError(t, err)
	assert.False(t, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTranslatesUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "appointments_doctor_instant_active_idx",
		})

	_, err := repo.Create(context.Background(), &Appointment{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: time.Now(),
		Reason:      "check-up",
		Status:      StatusPending,
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "patient_id", "doctor_id", "scheduled_at", "reason",
			"status", "reminded_at", "created_at", "updated_at", "deleted_at",
		}))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelMissingRowReturnsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(id, StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Cancel(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSetsMarkerAndStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(id, StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Cancel(context.Background(), id)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
