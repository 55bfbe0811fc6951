package poll

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"bankpro/internal/api"
	"bankpro/internal/log"
)

// LoginCounter is the slice of the API client a ReloginCounter needs.
type LoginCounter interface {
	UnreadCounter
	Login(ctx context.Context, email, password string) (api.Session, error)
}

// SessionSaver stores a refreshed login under a profile key.
type SessionSaver interface {
	Put(ctx context.Context, id string, sess api.Session) error
}

// ReloginConfig holds the watcher's credentials and where its session lives.
type ReloginConfig struct {
	Email     string
	Password  string
	ProfileID string
}

// ReloginCounter counts unread alerts for a long-running watcher. When the
// backend rejects the session with 401 it logs in again, stores the new
// session and retries once. It always uses its latest session, whatever
// session the caller passes.
type ReloginCounter struct {
	client LoginCounter
	store  SessionSaver
	config ReloginConfig
	logger *log.Logger

	mu   sync.Mutex
	sess api.Session
}

func NewReloginCounter(client LoginCounter, store SessionSaver, sess api.Session, config ReloginConfig, logger *log.Logger) *ReloginCounter {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReloginCounter{
		client: client,
		store:  store,
		config: config,
		logger: logger.WithComponent(log.ComponentPoller),
		sess:   sess,
	}
}

// Session returns the session currently in use.
func (c *ReloginCounter) Session() api.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *ReloginCounter) UnreadCount(ctx context.Context, _ api.Session) (int, error) {
	sess := c.Session()
	n, err := c.client.UnreadCount(ctx, sess)
	if !api.IsStatus(err, http.StatusUnauthorized) {
		return n, err
	}

	c.logger.InfoContext(ctx, "Session rejected, logging in again",
		log.FieldOperation, log.OpLogin, log.FieldUserID, sess.UserID)
	fresh, err := c.relogin(ctx)
	if err != nil {
		return 0, err
	}
	return c.client.UnreadCount(ctx, fresh)
}

func (c *ReloginCounter) relogin(ctx context.Context) (api.Session, error) {
	fresh, err := c.client.Login(ctx, c.config.Email, c.config.Password)
	if err != nil {
		return api.Session{}, fmt.Errorf("relogin: %w", err)
	}
	c.mu.Lock()
	c.sess = fresh
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Put(ctx, c.config.ProfileID, fresh); err != nil {
			// The new session is still usable for this process.
			c.logger.WarnContext(ctx, "Failed to store refreshed session", log.FieldError, err)
		}
	}
	return fresh, nil
}
