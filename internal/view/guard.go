package view

import (
	"errors"
	"sync/atomic"
	"time"

	"bankpro/internal/cache"
)

// ErrInFlight is returned by an action that was dropped because the same
// form's previous submission has not finished.
var ErrInFlight = errors.New("submission already in flight")

// Guard admits one submission of a form at a time.
type Guard struct {
	busy atomic.Bool
}

// Do runs fn unless a previous Do on the same guard is still running, in
// which case fn is not called and Do returns false.
func (g *Guard) Do(fn func()) bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	defer g.busy.Store(false)
	fn()
	return true
}

func (g *Guard) InFlight() bool {
	return g.busy.Load()
}

// Guard defaults: how many guards are kept and how long an idle one lives.
const (
	DefaultGuardLimit = 10000
	DefaultGuardIdle  = time.Hour
)

// Guards holds one Guard per (owner, form) pair and is shared by every
// request of the process. Idle guards expire; in-flight ones never do.
type Guards struct {
	guards *cache.LRU[*Guard]
}

func NewGuards() *Guards {
	return NewGuardsWithLimits(DefaultGuardLimit, DefaultGuardIdle)
}

func NewGuardsWithLimits(limit int, idle time.Duration) *Guards {
	return &Guards{
		guards: cache.NewLRU[*Guard](limit, idle, cache.WithPinned((*Guard).InFlight)),
	}
}

func guardKey(owner, form string) string {
	return owner + "\x00" + form
}

// For returns the guard of form for owner, creating it on first use.
func (gs *Guards) For(owner, form string) *Guard {
	return gs.guards.GetOrCreate(guardKey(owner, form), func() *Guard { return &Guard{} })
}

// Forget drops every guard of owner, typically on logout.
func (gs *Guards) Forget(owner string) {
	gs.guards.DeletePrefix(owner + "\x00")
}

// CleanExpired drops idle guards. It lets Guards register with a cache.Manager.
func (gs *Guards) CleanExpired() int {
	return gs.guards.CleanExpired()
}

// Len returns the number of live guards.
func (gs *Guards) Len() int {
	return gs.guards.Size()
}
