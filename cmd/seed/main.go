package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/db"
)

const (
	doctorCount  = 25
	patientCount = 500
	scheduleDays = 14
	shiftStartHr = 9
	shiftEndHr   = 17
)

var departments = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctors, err := seedDoctors(context.Background(), pool, doctorCount)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, patientCount); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedShiftWindows(context.Background(), pool, doctors); err != nil {
		log.Fatalf("seed shift windows: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		dept := departments[gofakeit.Number(0, len(departments)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, first_name, last_name, email, specialization, department)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), dept, dept)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, first_name, last_name, email, phone, age)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New(), gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(),
			gofakeit.Phone(), gofakeit.Number(18, 90))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedShiftWindows gives every doctor a weekday shift for the next fortnight.
func seedShiftWindows(ctx context.Context, pool *pgxpool.Pool, doctors []uuid.UUID) error {
	log.Printf("seeding shift windows for %d doctors over %d days", len(doctors), scheduleDays)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, doctorID := range doctors {
		for day := 0; day < scheduleDays; day++ {
			date := today.AddDate(0, 0, day)
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				continue
			}

			start := date.Add(time.Duration(shiftStartHr) * time.Hour)
			end := date.Add(time.Duration(shiftEndHr) * time.Hour)

			_, err := tx.Exec(ctx, `
				INSERT INTO shift_windows (id, staff_id, shift_date, start_time, end_time)
				VALUES ($1, $2, $3, $4, $5)
			`, uuid.New(), doctorID, date, start, end)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
