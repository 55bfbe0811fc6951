// Package storage keeps dashboard login sessions in SQLite. Only the
// backend token and the identity shown in the header are stored; no banking
// data is persisted.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bankpro/internal/api"
	"bankpro/internal/log"
)

// BadgeProfileID is the row the terminal badge watcher logs in under.
const BadgeProfileID = "profile:badge"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionStore maps opaque session IDs to backend sessions.
type SessionStore struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

type StoreOption func(*SessionStore)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *SessionStore) { s.now = now }
}

func WithLogger(l *log.Logger) StoreOption {
	return func(s *SessionStore) { s.logger = l.WithComponent(log.ComponentStorage) }
}

// Open creates the database file if needed, migrates it and returns a store
// whose sessions live for ttl.
func Open(dbPath string, ttl time.Duration, opts ...StoreOption) (*SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SessionStore{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create stores sess under a fresh random ID and returns the ID.
func (s *SessionStore) Create(ctx context.Context, sess api.Session) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, id, sess); err != nil {
		return "", err
	}
	return id, nil
}

// Put stores sess under id, replacing any previous session with that ID.
func (s *SessionStore) Put(ctx context.Context, id string, sess api.Session) error {
	now := s.now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token, user_id, name, email, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			name = excluded.name,
			email = excluded.email,
			created_at = excluded.created_at,
			last_seen = excluded.last_seen`,
		id, sess.Token, sess.UserID, sess.Name, sess.Email, now, now)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.logger.Debug("Session stored", log.FieldOperation, log.OpCreate, log.FieldUserID, sess.UserID)
	return nil
}

// Get returns the session stored under id and refreshes its last_seen.
// Sessions older than the TTL are deleted and reported as ErrSessionExpired.
func (s *SessionStore) Get(ctx context.Context, id string) (api.Session, error) {
	var (
		sess      api.Session
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, name, email, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.Token, &sess.UserID, &sess.Name, &sess.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return api.Anonymous, ErrSessionNotFound
	}
	if err != nil {
		return api.Anonymous, fmt.Errorf("query session: %w", err)
	}

	now := s.now()
	if s.ttl > 0 && now.Sub(time.Unix(createdAt, 0)) > s.ttl {
		if err := s.Delete(ctx, id); err != nil {
			return api.Anonymous, err
		}
		return api.Anonymous, ErrSessionExpired
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen = ? WHERE id = ?`, now.Unix(), id); err != nil {
		return api.Anonymous, fmt.Errorf("touch session: %w", err)
	}
	return sess, nil
}

// Delete removes the session. Deleting an unknown ID is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Purge deletes every expired session and returns how many were removed.
func (s *SessionStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("Expired sessions purged", log.FieldOperation, log.OpPurge, log.FieldCount, n)
	}
	return n, nil
}

// LastSeen returns when the session was last read.
func (s *SessionStore) LastSeen(ctx context.Context, id string) (time.Time, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, `SELECT last_seen FROM sessions WHERE id = ?`, id).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrSessionNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query session: %w", err)
	}
	return time.Unix(ts, 0), nil
}
