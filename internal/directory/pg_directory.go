package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) ResolveDoctor(ctx context.Context, id uuid.UUID) (*DoctorInfo, error) {
	var info DoctorInfo

	err := d.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, specialization, department
		FROM doctors
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(
		&info.ID,
		&info.FirstName,
		&info.LastName,
		&info.Email,
		&info.Specialization,
		&info.Department,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &info, nil
}

func (d *PgDirectory) ResolvePatient(ctx context.Context, id uuid.UUID) (*PatientInfo, error) {
	var info PatientInfo

	err := d.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone, age
		FROM patients
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(
		&info.ID,
		&info.FirstName,
		&info.LastName,
		&info.Email,
		&info.Phone,
		&info.Age,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &info, nil
}
