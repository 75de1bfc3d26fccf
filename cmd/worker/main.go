package main

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/abic-consultancy/abic_backend/internal/config"
	"github.com/abic-consultancy/abic_backend/internal/logging"
	"github.com/abic-consultancy/abic_backend/internal/notify"
)

// The worker consumes submission events from RabbitMQ and sends the staff
// notification and acknowledgement e-mails.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Logger = logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.RabbitMQURL == "" {
		slog.Error("RABBITMQ_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mq, err := notify.NewRabbitMQ(cfg.RabbitMQURL, cfg.NotifyQueue)
	if err != nil {
		slog.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mq.Close()

	worker := &notify.Worker{
		Mailer:     notify.NewMailer(cfg.SendgridAPIKey, mail.Address{Name: cfg.MailFromName, Address: cfg.MailFrom}, cfg.MailFromName),
		StaffEmail: mail.Address{Name: cfg.MailFromName, Address: cfg.NotifyEmail},
		AdminURL:   cfg.AdminURL,
	}

	slog.Info("Notification worker started", "queue", cfg.NotifyQueue)
	if err := mq.Consume(ctx, worker.Handle); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Notification worker stopped")
}
