package view

import (
	"context"

	"github.com/shopspring/decimal"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type HomeAPI interface {
	ListAccounts(ctx context.Context, sess api.Session) ([]core.Account, error)
	Summary(ctx context.Context, sess api.Session) (core.Summary, error)
}

// TransferForm is the quick-transfer widget on the home page.
type TransferForm struct {
	AccountType string
	Amount      string
}

type HomePage struct {
	Page
	Accounts   []core.Account
	Summary    core.Summary
	HasSummary bool
	Transfer   TransferForm

	api HomeAPI
}

func NewHomePage(c HomeAPI, env Env) *HomePage {
	return &HomePage{Page: newPage("home", env), api: c}
}

func (p *HomePage) Load(ctx context.Context) {
	parallel(
		func() {
			accounts, err := p.api.ListAccounts(ctx, p.Session)
			if err != nil {
				p.readFailed(ctx, "GET /accounts", err)
				return
			}
			p.Accounts = accounts
		},
		func() {
			sum, err := p.api.Summary(ctx, p.Session)
			if err != nil {
				p.readFailed(ctx, "GET /insights/summary", err)
				return
			}
			p.Summary, p.HasSummary = sum, true
		},
	)
}

func (p *HomePage) TotalBalance() decimal.Decimal {
	return core.TotalBalance(p.Accounts)
}

func (p *HomePage) AccountTypes() []core.AccountType {
	return core.AccountTypes(p.Accounts)
}

// SubmitTransfer only acknowledges the transfer; no request is sent. An
// incomplete form is ignored.
func (p *HomePage) SubmitTransfer(ctx context.Context, form TransferForm) error {
	return p.guarded(ctx, FormTransfer, func() {
		if form.AccountType == "" || form.Amount == "" {
			p.Transfer = form
			return
		}
		amount, err := core.ParsePositiveAmount(form.Amount)
		if err != nil {
			p.Transfer = form
			p.invalid(FormTransfer, err)
			return
		}
		p.alert(NoticeInfo, "Transferred ₹"+amount.StringFixed(2)+" from "+form.AccountType)
		p.Transfer = TransferForm{AccountType: form.AccountType}
	})
}
