package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const windowColumns = `id, staff_id, shift_date, start_time, end_time, notes, created_at, updated_at, deleted_at`

func scanWindow(row pgx.Row) (*ShiftWindow, error) {
	var w ShiftWindow

	err := row.Scan(
		&w.ID,
		&w.StaffID,
		&w.Date,
		&w.StartTime,
		&w.EndTime,
		&w.Notes,
		&w.CreatedAt,
		&w.UpdatedAt,
		&w.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	return &w, nil
}

func (r *PgRepository) GetWindow(ctx context.Context, staffID uuid.UUID, date time.Time) (*ShiftWindow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+windowColumns+`
		FROM shift_windows
		WHERE staff_id = $1
		  AND shift_date = $2::date
		  AND deleted_at IS NULL
		ORDER BY start_time
		LIMIT 1
	`, staffID, date)
	return scanWindow(row)
}

func (r *PgRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*ShiftWindow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+windowColumns+`
		FROM shift_windows
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) CreateWindow(ctx context.Context, w *ShiftWindow) (*ShiftWindow, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO shift_windows (id, staff_id, shift_date, start_time, end_time, notes, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, now(), now())
		RETURNING `+windowColumns+`
	`, id, w.StaffID, w.Date, w.StartTime, w.EndTime, w.Notes)

	return scanWindow(row)
}

func (r *PgRepository) ListWindows(ctx context.Context, f ListFilter) ([]ShiftWindow, int, error) {
	where := "deleted_at IS NULL"
	args := []any{}
	n := 0

	add := func(cond string, val any) {
		n++
		where += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, val)
	}

	if f.StaffID != nil {
		add("staff_id =", *f.StaffID)
	}
	if f.DateFrom != nil {
		add("shift_date >=", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("shift_date <=", *f.DateTo)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM shift_windows WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shift windows: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	query := fmt.Sprintf(`
		SELECT `+windowColumns+`
		FROM shift_windows
		WHERE %s
		ORDER BY shift_date DESC, start_time
		LIMIT $%d OFFSET $%d
	`, where, n+1, n+2)
	args = append(args, f.PageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ShiftWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) SoftDeleteWindow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE shift_windows
		SET deleted_at = now(),
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete shift window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) ListWindowsOn(ctx context.Context, date time.Time) ([]ShiftWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM shift_windows
		WHERE shift_date = $1::date AND deleted_at IS NULL
		ORDER BY start_time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ShiftWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
