package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bankpro/internal/api"
	"bankpro/internal/cli"
	apphttp "bankpro/internal/http"
	"bankpro/internal/log"
)

// purgeInterval is how often expired sessions are swept from the store.
const purgeInterval = 15 * time.Minute

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel)

	sessions := cli.OpenSessions(logger, cfg)
	defer sessions.Close()

	client := api.New(cfg.BankAPIURL, api.WithTimeout(cfg.APITimeout), api.WithLogger(logger))

	srv, err := apphttp.NewServer(client, sessions, apphttp.Options{
		Addr:               cfg.Addr(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		BadgePollInterval:  cfg.BadgePollInterval,
		CookieSecure:       cfg.SessionCookieSecure,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to build server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	go cli.RunPeriodically(ctx, purgeInterval, func(ctx context.Context) {
		// Purge logs what it removed.
		if _, err := sessions.Purge(ctx); err != nil {
			logger.Error("Session purge failed", log.FieldOperation, log.OpPurge, log.FieldError, err)
		}
	})

	logger.Info("Starting bankpro dashboard",
		"addr", cfg.Addr(),
		"backend", cfg.BankAPIURL,
		"sqlite_db", cfg.SQLiteDBPath,
		"badge_interval", cfg.BadgePollInterval)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
