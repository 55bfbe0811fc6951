package view

import (
	"context"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type NotificationsAPI interface {
	ListAlerts(ctx context.Context, sess api.Session) ([]core.Alert, error)
	MarkAlertRead(ctx context.Context, sess api.Session, id int64) (core.Alert, error)
	MarkAllAlertsRead(ctx context.Context, sess api.Session) error
	DeleteAlert(ctx context.Context, sess api.Session, id int64) error
}

// NotificationsPage patches its list locally after each successful write
// instead of re-fetching.
type NotificationsPage struct {
	Page
	Items []core.Alert

	api NotificationsAPI
}

func NewNotificationsPage(c NotificationsAPI, env Env) *NotificationsPage {
	return &NotificationsPage{Page: newPage("notifications", env), api: c}
}

func (p *NotificationsPage) Load(ctx context.Context) {
	alerts, err := p.api.ListAlerts(ctx, p.Session)
	if err != nil {
		p.readFailed(ctx, "GET /alerts", err)
		return
	}
	p.Items = alerts
}

func (p *NotificationsPage) Unread() int {
	return core.UnreadCount(p.Items)
}

func (p *NotificationsPage) Badge() string {
	return core.BadgeLabel(p.Unread())
}

// MarkRead flags one alert as read. Only that alert changes locally.
func (p *NotificationsPage) MarkRead(ctx context.Context, id int64) error {
	return p.guarded(ctx, FormMarkRead, func() {
		if _, err := p.api.MarkAlertRead(ctx, p.Session, id); err != nil {
			p.writeFailed(ctx, FormMarkRead, err, "Failed to update notification")
			return
		}
		for i := range p.Items {
			if p.Items[i].ID == id {
				p.Items[i].IsRead = true
			}
		}
	})
}

func (p *NotificationsPage) MarkAllRead(ctx context.Context) error {
	return p.guarded(ctx, FormMarkAllRead, func() {
		if err := p.api.MarkAllAlertsRead(ctx, p.Session); err != nil {
			p.writeFailed(ctx, FormMarkAllRead, err, "Failed to update notifications")
			return
		}
		for i := range p.Items {
			p.Items[i].IsRead = true
		}
	})
}

func (p *NotificationsPage) Delete(ctx context.Context, id int64) error {
	return p.guarded(ctx, FormDeleteAlert, func() {
		if err := p.api.DeleteAlert(ctx, p.Session, id); err != nil {
			p.writeFailed(ctx, FormDeleteAlert, err, "Failed to delete notification")
			return
		}
		kept := make([]core.Alert, 0, len(p.Items))
		for _, a := range p.Items {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		p.Items = kept
	})
}
