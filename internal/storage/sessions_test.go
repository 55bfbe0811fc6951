package storage

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankpro/internal/api"
	"bankpro/internal/log"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openStore(t *testing.T, ttl time.Duration, opts ...StoreOption) (*SessionStore, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]StoreOption{WithClock(c.now)}, opts...)
	s, err := Open(filepath.Join(t.TempDir(), "data", "sessions.db"), ttl, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, c
}

var asha = api.Session{Token: "tok-1", UserID: 4, Name: "Asha", Email: "asha@example.in"}

func TestCreateAndGet(t *testing.T) {
	s, c := openStore(t, time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, asha)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	c.t = c.t.Add(10 * time.Minute)
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, asha, got)

	seen, err := s.LastSeen(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, c.t.Unix(), seen.Unix())
}

func TestGetUnknown(t *testing.T) {
	s, _ := openStore(t, time.Hour)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiredSessionIsDeleted(t *testing.T) {
	s, c := openStore(t, time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, asha)
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Hour)
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDelete(t *testing.T) {
	s, _ := openStore(t, time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, asha)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPutReplacesProfile(t *testing.T) {
	s, _ := openStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, BadgeProfileID, asha))
	next := asha
	next.Token = "tok-2"
	require.NoError(t, s.Put(ctx, BadgeProfileID, next))

	got, err := s.Get(ctx, BadgeProfileID)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)
}

func TestPurge(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	s, c := openStore(t, time.Hour, WithLogger(logger))
	ctx := context.Background()

	old, err := s.Create(ctx, asha)
	require.NoError(t, err)
	c.t = c.t.Add(90 * time.Minute)
	fresh, err := s.Create(ctx, asha)
	require.NoError(t, err)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, old)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(ctx, fresh)
	assert.NoError(t, err)

	// One record per purge that removed something, none otherwise.
	n, err = s.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, strings.Count(buf.String(), "Expired sessions purged"))
	assert.Contains(t, buf.String(), "count=1")
}

func TestReopenKeepsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := Open(path, 0)
	require.NoError(t, err)
	id, err := s.Create(context.Background(), asha)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, 0)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, asha.Token, got.Token)
}
