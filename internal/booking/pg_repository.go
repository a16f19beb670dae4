package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the repository uses, so tests can
// substitute a pgxmock pool.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	pool querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// NewPgRepositoryFrom accepts any pgx-compatible querier. Tests use this
// with pgxmock.
func NewPgRepositoryFrom(q querier) *PgRepository {
	return &PgRepository{pool: q}
}

const appointmentColumns = `id, patient_id, doctor_id, scheduled_at, reason, status, reminded_at, created_at, updated_at, deleted_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ScheduledAt,
		&a.Reason,
		&a.Status,
		&a.RemindedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// translateUniqueViolation maps the partial unique index rejection to the
// same error kind the application-level conflict check produces. A losing
// concurrent writer is indistinguishable from a plainly taken slot.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlotTaken
	}
	return err
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, translateUniqueViolation(err)
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
		    reason = $3,
		    status = $4,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+appointmentColumns+`
	`, a.ID, a.ScheduledAt, a.Reason, a.Status)

	updated, err := scanAppointment(row)
	if err != nil {
		return nil, translateUniqueViolation(err)
	}
	return updated, nil
}

func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+appointmentColumns+`
	`, id, status)
	return scanAppointment(row)
}

func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET deleted_at = now(),
		    status = $2,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, StatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) HasConflict(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude *uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE doctor_id = $1
			  AND scheduled_at = $2
			  AND deleted_at IS NULL
			  AND status <> $3
			  AND ($4::uuid IS NULL OR id <> $4)
		)
	`, doctorID, at, StatusCancelled, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check appointment conflict: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	where := "deleted_at IS NULL"
	args := []any{}
	n := 0

	add := func(cond string, val any) {
		n++
		where += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, val)
	}

	if f.PatientID != nil {
		add("patient_id =", *f.PatientID)
	}
	if f.DoctorID != nil {
		add("doctor_id =", *f.DoctorID)
	}
	if f.Status != nil {
		add("status =", *f.Status)
	}
	if f.DateFrom != nil {
		add("scheduled_at >=", *f.DateFrom)
	}
	if f.DateTo != nil {
		// end of day inclusive
		add("scheduled_at <", f.DateTo.Add(24*time.Hour))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM appointments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	query := fmt.Sprintf(`
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE %s
		ORDER BY scheduled_at DESC
		LIMIT $%d OFFSET $%d
	`, where, n+1, n+2)
	args = append(args, f.PageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) CountActiveOn(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE doctor_id = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $2 + interval '1 day'
		  AND deleted_at IS NULL
		  AND status <> $3
	`, doctorID, date, StatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count appointments for doctor: %w", err)
	}
	return count, nil
}

func (r *PgRepository) BookedInstantsOn(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scheduled_at
		FROM appointments
		WHERE doctor_id = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $2 + interval '1 day'
		  AND deleted_at IS NULL
		  AND status <> $3
		ORDER BY scheduled_at
	`, doctorID, date, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListDueReminders(ctx context.Context, now time.Time, window time.Duration) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE scheduled_at > $1
		  AND scheduled_at <= $2
		  AND reminded_at IS NULL
		  AND deleted_at IS NULL
		  AND status <> $3
	`, now, now.Add(window), StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) MarkReminded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminded_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("mark appointment reminded: %w", err)
	}
	return nil
}
