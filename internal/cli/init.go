// Package cli holds the start-up and shutdown steps shared by
// cmd/econorise, cmd/econorise-notifier and cmd/econorise-cli.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"econorise/internal/config"
	"econorise/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger installs a logfmt logger on stdout at the given LOG_LEVEL
// value as slog's default.
func SetupLogger(level string) *log.Logger {
	return SetupLoggerTo(os.Stdout, level)
}

// SetupLoggerTo is SetupLogger writing to w.
func SetupLoggerTo(w io.Writer, level string) *log.Logger {
	logger := log.NewText(w, log.ParseLevel(level), log.ComponentApp)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile reads .env into the environment when there is one. Variables
// already set win.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the environment does not
// describe a valid configuration.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown waits in the background for SIGINT or SIGTERM. The
// returned context is cancelled on the signal, then cleanup runs with
// timeout to finish; done closes once it has returned or the time is up.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	return shutdownOn(signals, logger, timeout, cleanup)
}

func shutdownOn(signals chan os.Signal, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sig := <-signals
		signal.Stop(signals)
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		if cleanup == nil {
			return
		}
		cleanupCtx, stop := context.WithTimeout(context.Background(), timeout)
		defer stop()

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			cleanup(cleanupCtx)
		}()
		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-cleanupCtx.Done():
			logger.Warn("Shutdown timed out", "timeout", timeout.String())
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until ctx is cancelled and cleanup is over.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
