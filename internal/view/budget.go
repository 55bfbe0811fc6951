package view

import (
	"context"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type BudgetAPI interface {
	ListBudgets(ctx context.Context, sess api.Session, month string) ([]core.Budget, error)
	CreateBudget(ctx context.Context, sess api.Session, b core.BudgetInput) (core.Budget, error)
	UpdateBudget(ctx context.Context, sess api.Session, id int64, b core.BudgetInput) (core.Budget, error)
	DeleteBudget(ctx context.Context, sess api.Session, id int64) error
}

// BudgetForm is the raw create/edit budget form.
type BudgetForm struct {
	Category    string
	LimitAmount string
	Month       string
}

// BudgetRow pairs a budget with its display status.
type BudgetRow struct {
	core.Budget
	Status core.BudgetStatus
}

type BudgetPage struct {
	Page
	Month   core.Month
	Budgets []core.Budget
	Form    BudgetForm

	api BudgetAPI
}

func NewBudgetPage(c BudgetAPI, env Env, month string) *BudgetPage {
	m := core.ParseMonthOr(month, env.now())
	return &BudgetPage{
		Page:  newPage("budget", env),
		Month: m,
		Form:  BudgetForm{Month: m.String()},
		api:   c,
	}
}

func (p *BudgetPage) Load(ctx context.Context) {
	budgets, err := p.api.ListBudgets(ctx, p.Session, p.Month.String())
	if err != nil {
		p.readFailed(ctx, "GET /budgets", err)
		return
	}
	p.Budgets = budgets
}

func (p *BudgetPage) Rows() []BudgetRow {
	rows := make([]BudgetRow, 0, len(p.Budgets))
	for _, b := range p.Budgets {
		rows = append(rows, BudgetRow{Budget: b, Status: b.Status()})
	}
	return rows
}

func (p *BudgetPage) input(form BudgetForm) (core.BudgetInput, error) {
	limit, err := core.ParsePositiveAmount(form.LimitAmount)
	if err != nil {
		return core.BudgetInput{}, err
	}
	in := core.BudgetInput{
		UserID:      p.Session.UserID,
		Category:    form.Category,
		LimitAmount: limit,
		Month:       form.Month,
	}
	if in.Month == "" {
		in.Month = p.Month.String()
	}
	return in, in.Validate()
}

func (p *BudgetPage) CreateBudget(ctx context.Context, form BudgetForm) error {
	return p.guarded(ctx, FormCreateBudget, func() {
		p.Form = form
		in, err := p.input(form)
		if err != nil {
			p.invalid(FormCreateBudget, err)
			return
		}
		if _, err := p.api.CreateBudget(ctx, p.Session, in); err != nil {
			p.writeFailed(ctx, FormCreateBudget, err, "Failed to save budget")
			return
		}
		p.Form = BudgetForm{Month: p.Month.String()}
		p.Load(ctx)
	})
}

func (p *BudgetPage) UpdateBudget(ctx context.Context, id int64, form BudgetForm) error {
	return p.guarded(ctx, FormUpdateBudget, func() {
		in, err := p.input(form)
		if err != nil {
			p.invalid(FormUpdateBudget, err)
			return
		}
		if _, err := p.api.UpdateBudget(ctx, p.Session, id, in); err != nil {
			p.writeFailed(ctx, FormUpdateBudget, err, "Failed to save budget")
			return
		}
		p.Load(ctx)
	})
}

func (p *BudgetPage) DeleteBudget(ctx context.Context, id int64) error {
	return p.guarded(ctx, FormDeleteBudget, func() {
		if err := p.api.DeleteBudget(ctx, p.Session, id); err != nil {
			p.writeFailed(ctx, FormDeleteBudget, err, "Failed to delete budget")
			return
		}
		p.Load(ctx)
	})
}
