package view

import (
	"context"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type AccountsAPI interface {
	ListAccounts(ctx context.Context, sess api.Session) ([]core.Account, error)
	CreateAccount(ctx context.Context, sess api.Session, a core.NewAccount) (core.Account, error)
}

// AccountForm is the raw add-account form.
type AccountForm struct {
	BankName    string
	AccountType string
	Balance     string
}

func defaultAccountForm() AccountForm {
	return AccountForm{AccountType: string(core.AccountSavings)}
}

type AccountsPage struct {
	Page
	Accounts []core.Account
	Form     AccountForm
	// ShowForm keeps the add-account dialog open after a failed submission.
	ShowForm bool

	api AccountsAPI
}

func NewAccountsPage(c AccountsAPI, env Env) *AccountsPage {
	return &AccountsPage{Page: newPage("accounts", env), Form: defaultAccountForm(), api: c}
}

func (p *AccountsPage) Load(ctx context.Context) {
	accounts, err := p.api.ListAccounts(ctx, p.Session)
	if err != nil {
		p.readFailed(ctx, "GET /accounts", err)
		return
	}
	p.Accounts = accounts
}

func (p *AccountsPage) AccountTypes() []core.AccountType {
	return core.AllAccountTypes()
}

// AddAccount creates the account, resets the form and re-fetches the list.
func (p *AccountsPage) AddAccount(ctx context.Context, form AccountForm) error {
	return p.guarded(ctx, FormAddAccount, func() {
		p.Form, p.ShowForm = form, true

		balance, err := core.ParseAmount(form.Balance)
		if err != nil {
			p.invalid(FormAddAccount, err)
			return
		}
		in := core.NewAccount{
			UserID:      p.Session.UserID,
			BankName:    form.BankName,
			AccountType: core.AccountType(form.AccountType),
			Balance:     balance,
		}
		if err := in.Validate(); err != nil {
			p.invalid(FormAddAccount, err)
			return
		}

		if _, err := p.api.CreateAccount(ctx, p.Session, in); err != nil {
			p.writeFailed(ctx, FormAddAccount, err, "Error adding account")
			return
		}

		p.Form, p.ShowForm = defaultAccountForm(), false
		p.Load(ctx)
	})
}
