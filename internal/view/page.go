// Package view holds the per-page view-models of the dashboard. A page is
// built per request: Load fetches what the page shows, actions issue a single
// write and then re-fetch or splice the server's answer into the page state.
// Read failures are logged and leave state untouched; write failures become
// Alerts.
package view

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"bankpro/internal/api"
	"bankpro/internal/core"
	"bankpro/internal/log"
)

// Form names, used as guard keys and in logs.
const (
	FormTransfer       = "transfer"
	FormAddAccount     = "add-account"
	FormUpdateCategory = "update-category"
	FormCreateRule     = "create-rule"
	FormToggleRule     = "toggle-rule"
	FormDeleteRule     = "delete-rule"
	FormCreateBudget   = "create-budget"
	FormUpdateBudget   = "update-budget"
	FormDeleteBudget   = "delete-budget"
	FormMarkRead       = "mark-read"
	FormMarkAllRead    = "mark-all-read"
	FormDeleteAlert    = "delete-alert"
	FormSaveProfile    = "save-profile"
	FormLogin          = "login"
	FormRegister       = "register"
)

type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a blocking message shown at the top of the page.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Env is what every page needs besides its API slice.
type Env struct {
	Session api.Session
	// GuardOwner scopes in-flight guards, normally the session ID.
	GuardOwner string
	Guards     *Guards
	Logger     *log.Logger
	Now        func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Page is embedded by every view-model.
type Page struct {
	Name    string
	Session api.Session
	Alerts  []Notice

	env    Env
	logger *log.Logger
}

func newPage(name string, env Env) Page {
	logger := env.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if env.Guards == nil {
		env.Guards = NewGuards()
	}
	return Page{
		Name:    name,
		Session: env.Session,
		env:     env,
		logger:  logger.WithComponent(log.ComponentView).With(log.FieldPage, name),
	}
}

// HasErrors reports whether any error notice was raised.
func (p *Page) HasErrors() bool {
	for _, n := range p.Alerts {
		if n.Level == NoticeError {
			return true
		}
	}
	return false
}

func (p *Page) alert(level NoticeLevel, text string) {
	p.Alerts = append(p.Alerts, Notice{Level: level, Text: text})
}

// readFailed logs a failed read. Read failures never reach the user.
func (p *Page) readFailed(ctx context.Context, what string, err error) {
	p.logger.WarnContext(ctx, "Read failed",
		append([]any{log.FieldEndpoint, what}, errAttrs(err)...)...)
}

// writeFailed logs a failed write and raises the server's detail, or fallback
// when there is none.
func (p *Page) writeFailed(ctx context.Context, form string, err error, fallback string) {
	p.logWrite(ctx, form, err)
	p.alert(NoticeError, api.DetailOr(err, fallback))
}

func (p *Page) logWrite(ctx context.Context, form string, err error) {
	p.logger.WarnContext(ctx, "Write failed",
		append([]any{log.FieldForm, form}, errAttrs(err)...)...)
}

// invalid raises a validation message for a form that was not submitted.
func (p *Page) invalid(form string, err error) {
	p.logger.Debug("Form rejected", log.FieldForm, form, log.FieldError, err)
	p.alert(NoticeError, validationMessage(err))
}

// guarded runs fn under the form's in-flight guard.
func (p *Page) guarded(ctx context.Context, form string, fn func()) error {
	if !p.env.Guards.For(p.env.GuardOwner, form).Do(fn) {
		p.logger.InfoContext(ctx, "Submission dropped while in flight", log.FieldForm, form)
		return ErrInFlight
	}
	return nil
}

// parallel runs the reads concurrently. Each read keeps or skips its own
// result, so one failure does not affect the others.
func parallel(reads ...func()) {
	var g errgroup.Group
	for _, read := range reads {
		g.Go(func() error {
			read()
			return nil
		})
	}
	_ = g.Wait()
}

func errAttrs(err error) []any {
	attrs := []any{log.FieldError, err}
	if apiErr, ok := api.AsError(err); ok {
		attrs = append(attrs, log.FieldErrorKind, apiErr.Kind.String())
		if apiErr.Kind == api.KindStatus {
			attrs = append(attrs, log.FieldUpstream, apiErr.Status)
		}
	}
	return attrs
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter a valid amount"
	case errors.Is(err, core.ErrInvalidMonth):
		return "Please choose a valid month"
	case errors.Is(err, core.ErrEmptyBankName):
		return "Bank name is required"
	case errors.Is(err, core.ErrInvalidAccountType):
		return "Please choose an account type"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Please choose a category"
	case errors.Is(err, core.ErrEmptyEmail):
		return "Email is required"
	default:
		return err.Error()
	}
}
