package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"econorise/internal/amqp"
	"econorise/internal/api"
	"econorise/internal/cli"
	"econorise/internal/health"
	apphttp "econorise/internal/http"
	"econorise/internal/log"
	promcollector "econorise/internal/metrics/prometheus"
	"econorise/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := promcollector.NewCollector("econorise")
	if err := collector.Register(registry); err != nil {
		logger.Error("Failed to register metrics", log.FieldError, err)
		os.Exit(1)
	}

	client, err := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.APITimeout),
		api.WithDefaultCountry(cfg.DefaultCountry),
		api.WithLogger(logger),
		api.WithMetrics(collector),
	)
	if err != nil {
		logger.Error("Failed to create API client", log.FieldError, err, "base_url", cfg.APIBaseURL)
		os.Exit(1)
	}

	// Assessment events are optional; without a broker the service just
	// does not announce results.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.EventsEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithLogger(logger))
		if err != nil {
			logger.Error("Failed to initialize AMQP client, assessment events disabled", log.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("Assessment events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("Assessment events disabled - no AMQP_URL provided")
	}

	assessments := services.NewAssessmentService(client, publisher,
		services.WithLogger(logger),
		services.WithMetrics(collector),
	)
	financial := services.NewFinancialHealthService(client, logger)

	monitor := health.NewMonitor(client, cfg.HealthCheckInterval,
		health.WithLogger(logger),
		health.WithMetrics(collector),
		health.WithTimeout(cfg.APITimeout),
	)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Assessor:           assessments,
		Analyzer:           financial,
		Dashboard:          client,
		Status:             monitor,
		Logger:             logger,
		Metrics:            promcollector.Handler(registry),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DefaultCountry:     cfg.DefaultCountry,
		TrustedProxies:     cfg.TrustedProxies,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := monitor.Stop(ctx); err != nil {
			logger.Warn("Health monitor did not stop cleanly", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
	})

	if err := monitor.Start(ctx); err != nil {
		logger.Error("Failed to start health monitor", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting econorise server",
		"port", cfg.Port,
		"api_base_url", client.BaseURL(),
		"health_interval", cfg.HealthCheckInterval.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
