// Command bankpro-badge logs in, prints the unread-notification badge on
// every poll until interrupted and logs in again when the backend rejects
// the session.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bankpro/internal/api"
	"bankpro/internal/cli"
	"bankpro/internal/core"
	"bankpro/internal/log"
	"bankpro/internal/poll"
	"bankpro/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel)

	if err := cfg.ValidateCredentials(); err != nil {
		logger.Error("Badge watcher needs credentials", log.FieldError, err)
		os.Exit(1)
	}

	sessions := cli.OpenSessions(logger, cfg)
	defer sessions.Close()

	client := api.New(cfg.BankAPIURL, api.WithTimeout(cfg.APITimeout), api.WithLogger(logger))

	sess, err := session(context.Background(), sessions, client, cfg.Email, cfg.Password, logger)
	if err != nil {
		logger.Error("Login failed", log.FieldOperation, log.OpLogin, log.FieldError, err)
		os.Exit(1)
	}

	// The stored session can outlive the backend token; 401s trigger a new login.
	counter := poll.NewReloginCounter(client, sessions, sess, poll.ReloginConfig{
		Email:     cfg.Email,
		Password:  cfg.Password,
		ProfileID: storage.BadgeProfileID,
	}, logger)

	poller := poll.NewBadgePoller(counter, sess, poll.BadgePollerConfig{
		Interval: cfg.BadgePollInterval,
		OnUpdate: func(count int) {
			label := "no unread notifications"
			if l := core.BadgeLabel(count); l != "" {
				label = l + " unread"
			}
			fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), label)
		},
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 5*time.Second, func(ctx context.Context) {
		if err := poller.Stop(ctx); err != nil {
			logger.Warn("Poller stop failed", log.FieldError, err)
		}
	})

	if err := poller.Start(ctx); err != nil {
		logger.Error("Failed to start poller", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Watching unread notifications",
		"email", cfg.Email, "interval", cfg.BadgePollInterval)

	cli.WaitForShutdown(ctx, done)
}

// session reuses the stored watcher login when it is still valid, otherwise
// logs in and stores the new one.
func session(ctx context.Context, store *storage.SessionStore, client *api.Client, email, password string, logger *log.Logger) (api.Session, error) {
	sess, err := store.Get(ctx, storage.BadgeProfileID)
	switch {
	case err == nil && sess.Email == email:
		logger.Debug("Reusing stored session", log.FieldUserID, sess.UserID)
		return sess, nil
	case err != nil && !errors.Is(err, storage.ErrSessionNotFound) && !errors.Is(err, storage.ErrSessionExpired):
		return api.Session{}, err
	}

	sess, err = client.Login(ctx, email, password)
	if err != nil {
		return api.Session{}, err
	}
	if err := store.Put(ctx, storage.BadgeProfileID, sess); err != nil {
		return api.Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}
