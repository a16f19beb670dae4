package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/db"
)

// The simulator hammers the booking API with workers that deliberately
// target a small set of (doctor, instant) pairs, so most requests race for
// the same slots. At the end it checks the database for double bookings.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	SlotTargets int
	PostgresDSN string
}

type DataPool struct {
	Patients []uuid.UUID
	Doctors  []uuid.UUID
	Slots    []slotTarget

	mu           sync.RWMutex
	appointments []uuid.UUID
}

type slotTarget struct {
	DoctorID uuid.UUID
	At       time.Time
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type Counters struct {
	Created   int64
	Conflicts int64
	Rejected  int64
	Cancelled int64
	Errors    int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	_ = godotenv.Load()

	cfg := loadSimConfig()
	log.Printf("simulate: url=%s workers=%d duration=%s slot_targets=%d",
		cfg.APIBaseURL, cfg.Workers, cfg.Duration, cfg.SlotTargets)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	data, err := loadDataPool(context.Background(), pool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d patients, %d doctors, %d contended slots",
		len(data.Patients), len(data.Doctors), len(data.Slots))

	counters := &Counters{}
	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			worker(runCtx, cfg, data, counters, workerID)
		}(i)
	}
	wg.Wait()

	fmt.Println("--- simulation report ---")
	fmt.Printf("created:   %d\n", atomic.LoadInt64(&counters.Created))
	fmt.Printf("conflicts: %d\n", atomic.LoadInt64(&counters.Conflicts))
	fmt.Printf("rejected:  %d\n", atomic.LoadInt64(&counters.Rejected))
	fmt.Printf("cancelled: %d\n", atomic.LoadInt64(&counters.Cancelled))
	fmt.Printf("errors:    %d\n", atomic.LoadInt64(&counters.Errors))

	if err := verifyNoDoubleBooking(context.Background(), pool); err != nil {
		log.Fatalf("verification failed: %v", err)
	}
	fmt.Println("verification: no doctor holds two active appointments at one instant")
}

func worker(ctx context.Context, cfg SimConfig, data *DataPool, counters *Counters, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	client := &http.Client{Timeout: 10 * time.Second}

	for ctx.Err() == nil {
		// Mostly bookings, occasionally a cancel to free slots back up.
		if rng.Float64() < 0.85 {
			doBooking(ctx, client, cfg, data, counters, rng)
		} else {
			doCancel(ctx, client, cfg, data, counters, rng)
		}
	}
}

func doBooking(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, counters *Counters, rng *rand.Rand) {
	patient := data.Patients[rng.Intn(len(data.Patients))]
	slot := data.Slots[rng.Intn(len(data.Slots))]

	payload, _ := json.Marshal(map[string]any{
		"patient_id":   patient.String(),
		"doctor_id":    slot.DoctorID.String(),
		"scheduled_at": slot.At.Format(time.RFC3339),
		"reason":       "load test booking",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(payload))
	if err != nil {
		atomic.AddInt64(&counters.Errors, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			atomic.AddInt64(&counters.Errors, 1)
		}
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&counters.Created, 1)
		var created struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err == nil {
			data.AddAppointment(created.ID)
		}
	case http.StatusConflict:
		atomic.AddInt64(&counters.Conflicts, 1)
	case http.StatusBadRequest:
		atomic.AddInt64(&counters.Rejected, 1)
	default:
		atomic.AddInt64(&counters.Errors, 1)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("unexpected status %d: %s", resp.StatusCode, body)
	}
}

func doCancel(ctx context.Context, client *http.Client, cfg SimConfig, data *DataPool, counters *Counters, rng *rand.Rand) {
	id, ok := data.RandomAppointment(rng)
	if !ok {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, cfg.APIBaseURL+"/appointments/"+id.String(), nil)
	if err != nil {
		atomic.AddInt64(&counters.Errors, 1)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			atomic.AddInt64(&counters.Errors, 1)
		}
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// A 404 just means another worker cancelled it first.
	if resp.StatusCode == http.StatusNoContent {
		atomic.AddInt64(&counters.Cancelled, 1)
	}
}

// loadDataPool reads seeded patients and upcoming shift windows, and derives
// a deliberately small set of bookable instants so workers collide.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	data := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM patients WHERE deleted_at IS NULL LIMIT 200`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		data.Patients = append(data.Patients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	windowRows, err := pool.Query(ctx, `
		SELECT staff_id, start_time
		FROM shift_windows
		WHERE deleted_at IS NULL AND shift_date >= CURRENT_DATE
		ORDER BY shift_date
		LIMIT $1
	`, cfg.SlotTargets)
	if err != nil {
		return nil, err
	}
	defer windowRows.Close()
	for windowRows.Next() {
		var doctorID uuid.UUID
		var start time.Time
		if err := windowRows.Scan(&doctorID, &start); err != nil {
			return nil, err
		}
		data.Doctors = append(data.Doctors, doctorID)
		for i := 0; i < 4; i++ {
			data.Slots = append(data.Slots, slotTarget{
				DoctorID: doctorID,
				At:       start.Add(time.Duration(i) * 30 * time.Minute),
			})
		}
	}
	if err := windowRows.Err(); err != nil {
		return nil, err
	}

	if len(data.Patients) == 0 || len(data.Slots) == 0 {
		return nil, fmt.Errorf("no seeded patients or shift windows found, run cmd/seed first")
	}

	return data, nil
}

func verifyNoDoubleBooking(ctx context.Context, pool *pgxpool.Pool) error {
	var violations int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT doctor_id, scheduled_at
			FROM appointments
			WHERE deleted_at IS NULL AND status <> 'cancelled'
			GROUP BY doctor_id, scheduled_at
			HAVING COUNT(*) > 1
		) dup
	`).Scan(&violations)
	if err != nil {
		return err
	}
	if violations > 0 {
		return fmt.Errorf("%d doctor/instant pairs are double booked", violations)
	}
	return nil
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 20),
		SlotTargets: getInt("SIM_SLOT_TARGETS", 5),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
