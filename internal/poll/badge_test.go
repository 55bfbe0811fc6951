package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankpro/internal/api"
)

type fakeCounter struct {
	calls atomic.Int32
	mu    sync.Mutex
	next  []result
}

type result struct {
	n   int
	err error
}

func (f *fakeCounter) UnreadCount(ctx context.Context, sess api.Session) (int, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.next) == 0 {
		return 0, nil
	}
	r := f.next[0]
	if len(f.next) > 1 {
		f.next = f.next[1:]
	}
	return r.n, r.err
}

func TestNewBadgePollerDefaults(t *testing.T) {
	p := NewBadgePoller(&fakeCounter{}, api.Session{}, BadgePollerConfig{}, nil)

	if p.config.Interval != DefaultInterval {
		t.Errorf("expected Interval %v, got %v", DefaultInterval, p.config.Interval)
	}
	if p.IsRunning() {
		t.Error("poller should not be running initially")
	}
	if _, ok := p.Count(); ok {
		t.Error("no count before the first fetch")
	}
}

func TestBadgePoller_FetchesImmediately(t *testing.T) {
	fc := &fakeCounter{next: []result{{n: 3}}}
	updates := make(chan int, 1)
	p := NewBadgePoller(fc, api.Session{Token: "t"}, BadgePollerConfig{
		Interval: time.Hour,
		OnUpdate: func(n int) { updates <- n },
	}, nil)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	select {
	case n := <-updates:
		assert.Equal(t, 3, n)
	case <-time.After(time.Second):
		t.Fatal("no immediate fetch")
	}
	assert.Equal(t, "3", p.Label())
}

func TestBadgePoller_KeepsLastGoodCount(t *testing.T) {
	fc := &fakeCounter{next: []result{{n: 5}, {err: errors.New("backend down")}}}
	p := NewBadgePoller(fc, api.Session{}, BadgePollerConfig{Interval: 5 * time.Millisecond}, nil)

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return fc.calls.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))

	n, ok := p.Count()
	assert.True(t, ok)
	assert.Equal(t, 5, n)
}

func TestBadgePoller_NoFetchAfterStop(t *testing.T) {
	fc := &fakeCounter{}
	p := NewBadgePoller(fc, api.Session{}, BadgePollerConfig{Interval: 2 * time.Millisecond}, nil)

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return fc.calls.Load() >= 2 }, time.Second, time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))

	after := fc.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, fc.calls.Load())
	assert.False(t, p.IsRunning())
}

func TestBadgePoller_StopsOnContextCancel(t *testing.T) {
	p := NewBadgePoller(&fakeCounter{}, api.Session{}, BadgePollerConfig{Interval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, p.Start(ctx))
	cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on cancel")
	}
}

func TestBadgePoller_StartTwice(t *testing.T) {
	p := NewBadgePoller(&fakeCounter{}, api.Session{}, BadgePollerConfig{Interval: time.Hour}, nil)
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	if err := p.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running poller")
	}
}

func TestBadgePoller_StopNotRunning(t *testing.T) {
	p := NewBadgePoller(&fakeCounter{}, api.Session{}, BadgePollerConfig{}, nil)
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
