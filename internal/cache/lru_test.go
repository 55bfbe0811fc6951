package cache

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

// counting returns a create func that hands out v and counts its calls.
func counting[T any](v T) (func() T, *atomic.Int32) {
	var n atomic.Int32
	return func() T { n.Add(1); return v }, &n
}

func TestLRUIdleExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int](10, time.Minute, WithClock[int](clk.now))
	mk, created := counting(1)

	c.GetOrCreate("a", mk)
	clk.advance(50 * time.Second)
	assert.Equal(t, 1, c.GetOrCreate("a", mk))
	assert.EqualValues(t, 1, created.Load())

	// The lookup refreshed the expiry.
	clk.advance(50 * time.Second)
	assert.Zero(t, c.CleanExpired())
	c.GetOrCreate("a", mk)
	assert.EqualValues(t, 1, created.Load())

	clk.advance(2 * time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())

	c.GetOrCreate("a", mk)
	assert.EqualValues(t, 2, created.Load())
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string](2, time.Hour)
	c.GetOrCreate("a", func() string { return "A" })
	c.GetOrCreate("b", func() string { return "B" })
	c.GetOrCreate("a", func() string { return "stale" })
	c.GetOrCreate("c", func() string { return "C" })
	assert.Equal(t, 2, c.Size())

	assert.Equal(t, "A", c.GetOrCreate("a", func() string { return "new" }))
	assert.Equal(t, "C", c.GetOrCreate("c", func() string { return "new" }))
	// b was evicted, so it is created again.
	assert.Equal(t, "new", c.GetOrCreate("b", func() string { return "new" }))
}

func TestLRUPinnedEntriesSurvive(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[bool](1, time.Minute,
		WithClock[bool](clk.now),
		WithPinned(func(busy bool) bool { return busy }))

	c.GetOrCreate("busy", func() bool { return true })
	c.GetOrCreate("idle", func() bool { return false })
	assert.Equal(t, 2, c.Size())

	clk.advance(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.True(t, c.GetOrCreate("busy", func() bool { return false }))
}

func TestLRUGetOrCreateAndDeletePrefix(t *testing.T) {
	c := NewLRU[int](10, time.Hour)
	mk, created := counting(7)

	assert.Equal(t, 7, c.GetOrCreate("s1/x", mk))
	assert.Equal(t, 7, c.GetOrCreate("s1/x", mk))
	c.GetOrCreate("s1/y", mk)
	c.GetOrCreate("s2/x", mk)
	assert.EqualValues(t, 3, created.Load())

	assert.Equal(t, 2, c.DeletePrefix("s1/"))
	assert.Equal(t, 1, c.Size())
}

func TestManagerSweepAndStop(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int](10, time.Minute, WithClock[int](clk.now))
	c.GetOrCreate("a", func() int { return 1 })

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(time.Hour)

	clk.advance(time.Hour)
	assert.Equal(t, 1, m.Sweep())
	m.Stop()
	m.Stop()
}
