package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"bankpro/internal/core"
	"bankpro/internal/log"
	"bankpro/internal/poll"
)

// badgeEvent is the payload of one SSE badge event.
type badgeEvent struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// handleBadge renders the unread badge fragment. A failed read renders an
// empty badge.
func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := sessionFrom(ctx)

	count, err := s.client.UnreadCount(ctx, sess)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Unread count unavailable",
			log.FieldOperation, log.OpPoll, log.FieldError, err)
		count = 0
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(badgeFragment(count)))
}

func badgeFragment(count int) string {
	label := core.BadgeLabel(count)
	if label == "" {
		return `<span class="badge" data-count="0" hidden></span>`
	}
	return `<span class="badge" data-count="` + strconv.Itoa(count) + `">` +
		template.HTMLEscapeString(label) + `</span>`
}

// handleBadgeStream pushes the unread count as server-sent events. Each
// connection runs its own poller; an event is sent only when the count changes.
// The stream ends when the client goes away or the server shuts down.
func (s *Server) handleBadgeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stopOnShutdown := context.AfterFunc(s.baseCtx, cancel)
	defer stopOnShutdown()

	sess, _ := sessionFrom(ctx)
	logger := log.FromContext(ctx)

	updates := make(chan int, 1)
	poller := poll.NewBadgePoller(s.client, sess, poll.BadgePollerConfig{
		Interval: s.opts.BadgePollInterval,
		OnUpdate: func(count int) {
			// Keep only the latest count.
			select {
			case <-updates:
			default:
			}
			updates <- count
		},
	}, logger)
	if err := poller.Start(ctx); err != nil {
		http.Error(w, "Badge stream unavailable", http.StatusInternalServerError)
		return
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = poller.Stop(stopCtx)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	last := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-poller.Done():
			return
		case count := <-updates:
			if count == last {
				continue
			}
			last = count
			if err := writeBadgeEvent(w, count); err != nil {
				logger.DebugContext(ctx, "Badge stream closed", log.FieldError, err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeBadgeEvent(w http.ResponseWriter, count int) error {
	data, err := json.Marshal(badgeEvent{Count: count, Label: core.BadgeLabel(count)})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: badge\ndata: %s\n\n", data)
	return err
}
