package main

import (
	"context"
	"errors"
	"os"
	"time"

	"econorise/internal/amqp"
	"econorise/internal/cli"
	"econorise/internal/log"
	"econorise/internal/notify"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentNotifier)
	logger.Info("Starting econorise-notifier")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	var sender notify.Sender
	if cfg.EmailEnabled() {
		sender = notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.NotifyFrom, cfg.NotifyTo)
		logger.Info("E-mail notifications enabled", "smtp_host", cfg.SMTPHost, "recipients", len(cfg.NotifyTo))
	} else {
		sender = notify.NewLogSender(logger)
		logger.Info("E-mail notifications disabled - no SMTP_HOST provided, logging events instead")
	}
	notifier := notify.New(sender, logger)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
	})

	if err := amqpClient.ConsumeAssessmentCompleted(ctx, notifier.Notify); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = amqpClient.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Notifier stopped")
}
