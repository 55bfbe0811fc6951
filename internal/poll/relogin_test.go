package poll

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankpro/internal/api"
	"bankpro/internal/core"
	"bankpro/internal/fakebank"
)

type recordingSaver struct {
	mu    sync.Mutex
	ids   []string
	saved []api.Session
}

func (r *recordingSaver) Put(ctx context.Context, id string, sess api.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.saved = append(r.saved, sess)
	return nil
}

type movingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *movingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *movingClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type reloginHarness struct {
	bank   *fakebank.Server
	clock  *movingClock
	client *api.Client
	saver  *recordingSaver
	sess   api.Session
}

func newReloginHarness(t *testing.T) *reloginHarness {
	t.Helper()
	clk := &movingClock{t: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	bank := fakebank.New(fakebank.WithClock(clk.now))
	u := bank.AddUser("Asha Rao", "asha@example.in", "s3cret")
	bank.SeedAlert(u.ID, "Hi", "There", core.AlertInfo, false)
	backend := httptest.NewServer(bank)
	t.Cleanup(backend.Close)

	client := api.New(backend.URL)
	sess, err := client.Login(context.Background(), "asha@example.in", "s3cret")
	require.NoError(t, err)
	return &reloginHarness{bank: bank, clock: clk, client: client, saver: &recordingSaver{}, sess: sess}
}

func (h *reloginHarness) counter(password string) *ReloginCounter {
	return NewReloginCounter(h.client, h.saver, h.sess, ReloginConfig{
		Email:     "asha@example.in",
		Password:  password,
		ProfileID: "badge-watcher",
	}, nil)
}

func TestReloginCounterRefreshesExpiredSession(t *testing.T) {
	h := newReloginHarness(t)
	c := h.counter("s3cret")
	ctx := context.Background()

	n, err := c.UnreadCount(ctx, h.sess)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, h.bank.Count("POST /login"))

	// Backend tokens last an hour.
	h.clock.advance(2 * time.Hour)

	n, err = c.UnreadCount(ctx, h.sess)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, h.bank.Count("POST /login"))
	assert.Equal(t, 3, h.bank.Count("GET /alerts/unread-count"))
	assert.NotEqual(t, h.sess.Token, c.Session().Token)

	require.Len(t, h.saver.saved, 1)
	assert.Equal(t, "badge-watcher", h.saver.ids[0])
	assert.Equal(t, c.Session(), h.saver.saved[0])

	// The refreshed session is reused without another login.
	_, err = c.UnreadCount(ctx, h.sess)
	require.NoError(t, err)
	assert.Equal(t, 2, h.bank.Count("POST /login"))
}

func TestReloginCounterLeavesOtherErrorsAlone(t *testing.T) {
	h := newReloginHarness(t)
	c := h.counter("s3cret")

	h.bank.Fail("GET /alerts/unread-count", http.StatusInternalServerError, "")
	_, err := c.UnreadCount(context.Background(), h.sess)
	assert.True(t, api.IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, 1, h.bank.Count("POST /login"))
	assert.Empty(t, h.saver.saved)
}

func TestReloginCounterReportsFailedLogin(t *testing.T) {
	h := newReloginHarness(t)
	c := h.counter("wrong")
	h.clock.advance(2 * time.Hour)

	_, err := c.UnreadCount(context.Background(), h.sess)
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, h.sess, c.Session())
	assert.Empty(t, h.saver.saved)
}

func TestBadgePollerRecoversAfterTokenExpiry(t *testing.T) {
	h := newReloginHarness(t)
	h.clock.advance(2 * time.Hour)

	updates := make(chan int, 1)
	p := NewBadgePoller(h.counter("s3cret"), h.sess, BadgePollerConfig{
		Interval: time.Hour,
		OnUpdate: func(n int) { updates <- n },
	}, nil)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Stop(context.Background()) })

	select {
	case n := <-updates:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no count after the session expired")
	}
}
