package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/booking"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/config"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/db"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/directory"
	"github.com/maxstackrosenblum/rhino-hospital-kiroween/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Fatal().Err(err).Msg("config load error")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "reminder-worker").Logger()

	logger.Info().
		Dur("poll", cfg.ReminderPoll).
		Dur("window", cfg.ReminderWindow).
		Msg("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	dir := directory.NewPgDirectory(pgPool)

	var notifier notify.Notifier
	if sender := notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName); sender != nil {
		notifier = notify.NewEmailNotifier(sender, logger)
	} else {
		logger.Info().Msg("no SendGrid API key set, reminders go to the log only")
		notifier = notify.NewLogNotifier(logger)
	}

	reminders := booking.NewReminders(booking.NewPgRepository(pgPool), dir, notifier, logger)

	ticker := time.NewTicker(cfg.ReminderPoll)
	defer ticker.Stop()

	for {
		runCtx, cancel := context.WithTimeout(rootCtx, cfg.ReminderPoll)
		if err := reminders.RunOnce(runCtx, time.Now().UTC(), cfg.ReminderWindow); err != nil {
			logger.Error().Err(err).Msg("reminder run failed")
		}
		cancel()

		select {
		case <-ticker.C:
		case <-rootCtx.Done():
			logger.Info().Msg("shutting down reminder-worker")
			return
		}
	}
}
