// Package poll keeps the unread-notification badge fresh by asking the
// backend for the unread count on a fixed interval.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"bankpro/internal/api"
	"bankpro/internal/core"
	"bankpro/internal/log"
)

// DefaultInterval is how often the badge is refreshed when no interval is configured.
const DefaultInterval = 30 * time.Second

// UnreadCounter is the slice of the API client the poller needs.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, sess api.Session) (int, error)
}

// BadgePollerConfig holds configuration for the badge poller
type BadgePollerConfig struct {
	// Interval between fetches (default: 30s)
	Interval time.Duration

	// OnUpdate is called from the poller goroutine after every successful fetch.
	OnUpdate func(count int)
}

// BadgePoller fetches the unread count for one session: once on Start, then
// every Interval until Stop or context cancellation.
type BadgePoller struct {
	counter UnreadCounter
	sess    api.Session
	config  BadgePollerConfig
	logger  *log.Logger

	mu       sync.Mutex
	running  bool
	count    int
	hasCount bool
	cancel   context.CancelFunc
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewBadgePoller(counter UnreadCounter, sess api.Session, config BadgePollerConfig, logger *log.Logger) *BadgePoller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &BadgePoller{
		counter: counter,
		sess:    sess,
		config:  config,
		logger:  logger.WithComponent(log.ComponentPoller),
	}
}

// Start begins polling. Returns an error if already running.
func (p *BadgePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("badge poller is already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(loopCtx, stopCh, doneCh)

	p.logger.DebugContext(ctx, "Badge poller started",
		"interval", p.config.Interval,
		log.FieldUserID, p.sess.UserID)
	return nil
}

// Stop ends polling and waits for the loop to exit. Once Stop returns no
// further fetch is issued; a fetch in flight is cancelled.
func (p *BadgePoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh, cancel := p.stopCh, p.doneCh, p.cancel
	p.running = false
	p.mu.Unlock()

	close(stopCh)
	cancel()

	select {
	case <-doneCh:
		p.logger.DebugContext(ctx, "Badge poller stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Badge poller stop timed out")
		return ctx.Err()
	}
}

// Done is closed when the polling loop exits, or nil before the first Start.
func (p *BadgePoller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

func (p *BadgePoller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Count returns the last successfully fetched count and whether any fetch has
// succeeded yet.
func (p *BadgePoller) Count() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count, p.hasCount
}

// Label is the badge text for the last good count.
func (p *BadgePoller) Label() string {
	n, _ := p.Count()
	return core.BadgeLabel(n)
}

func (p *BadgePoller) runLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.fetch(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick and a stop can be ready together.
			select {
			case <-stopCh:
				return
			default:
			}
			p.fetch(ctx)
		}
	}
}

func (p *BadgePoller) fetch(ctx context.Context) {
	n, err := p.counter.UnreadCount(ctx, p.sess)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		kind := "unknown"
		if apiErr, ok := api.AsError(err); ok {
			kind = apiErr.Kind.String()
		}
		p.logger.WarnContext(ctx, "Failed to fetch unread count",
			log.FieldError, err,
			log.FieldErrorKind, kind,
			log.FieldOperation, log.OpPoll)
		return
	}

	p.mu.Lock()
	p.count = n
	p.hasCount = true
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "Unread count fetched", log.FieldUnreadCount, n)
	if p.config.OnUpdate != nil {
		p.config.OnUpdate(n)
	}
}
