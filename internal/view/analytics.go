package view

import (
	"context"

	"github.com/shopspring/decimal"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type AnalyticsAPI interface {
	ListTransactions(ctx context.Context, sess api.Session, month string) ([]core.Transaction, error)
	SpendingByCategory(ctx context.Context, sess api.Session, month string) ([]core.CategoryAmount, error)
}

// AnalyticsPage shows one month of activity. Changing the month always
// re-fetches; nothing is cached across months.
type AnalyticsPage struct {
	Page
	Month        core.Month
	Transactions []core.Transaction
	Spending     []core.CategoryAmount

	api AnalyticsAPI
}

// NewAnalyticsPage selects month, or the current month when it does not parse.
func NewAnalyticsPage(c AnalyticsAPI, env Env, month string) *AnalyticsPage {
	return &AnalyticsPage{
		Page:  newPage("analytics", env),
		Month: core.ParseMonthOr(month, env.now()),
		api:   c,
	}
}

func (p *AnalyticsPage) Load(ctx context.Context) {
	key := p.Month.String()
	parallel(
		func() {
			txns, err := p.api.ListTransactions(ctx, p.Session, key)
			if err != nil {
				p.readFailed(ctx, "GET /transactions", err)
				return
			}
			p.Transactions = txns
		},
		func() {
			rows, err := p.api.SpendingByCategory(ctx, p.Session, key)
			if err != nil {
				p.readFailed(ctx, "GET /insights/spending-by-category", err)
				return
			}
			p.Spending = rows
		},
	)
}

// SelectMonth switches to month and re-fetches.
func (p *AnalyticsPage) SelectMonth(ctx context.Context, month string) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return err
	}
	p.Month = m
	p.Transactions, p.Spending = nil, nil
	p.Load(ctx)
	return nil
}

func (p *AnalyticsPage) TotalIncome() decimal.Decimal  { return core.TotalIncome(p.Transactions) }
func (p *AnalyticsPage) TotalAmount() decimal.Decimal  { return core.TotalAmount(p.Transactions) }
func (p *AnalyticsPage) TotalExpense() decimal.Decimal { return core.TotalExpense(p.Spending) }

func (p *AnalyticsPage) Shares() []core.CategoryShare {
	return core.CategoryShares(p.Spending)
}

func (p *AnalyticsPage) Chart() []core.ChartPoint {
	return core.ChartSeries(p.Transactions)
}
