package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/api"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/booking"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/config"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/db"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/metrics"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/notify"
	redisclient "github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/redis"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/schedule"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := newLogger(cfg)
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	dir := directory.NewPgDirectory(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	notifier := buildNotifier(cfg, logger)
	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	shiftSvc := schedule.NewService(schedule.NewPgRepository(pgPool), logger)
	bookingRepo := booking.NewPgRepository(pgPool)
	bookingSvc := booking.NewService(bookingRepo, shiftSvc, locker, dir, notifier, bookingMetrics, logger)
	availability := booking.NewAvailability(shiftSvc, bookingRepo, dir)

	router := api.NewRouter(api.RouterConfig{
		Bookings:        bookingSvc,
		Availability:    availability,
		Shifts:          shiftSvc,
		DefaultSlotStep: cfg.DefaultSlotStep,
		PgPool:          pgPool,
		Redis:           rdb,
		Logger:          logger,
		Env:             cfg.Env,
		Version:         version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("http server error")
	case <-rootCtx.Done():
	}

	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

func buildNotifier(cfg config.Config, logger zerolog.Logger) notify.Notifier {
	sender := notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	if sender == nil {
		logger.Info().Msg("no SendGrid API key set, notifications go to the log only")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewEmailNotifier(sender, logger)
}
