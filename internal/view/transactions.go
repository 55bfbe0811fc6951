package view

import (
	"context"
	"slices"
	"strings"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type TransactionsAPI interface {
	ListTransactions(ctx context.Context, sess api.Session, month string) ([]core.Transaction, error)
	ListRules(ctx context.Context, sess api.Session) ([]core.CategoryRule, error)
	ListCategories(ctx context.Context, sess api.Session) ([]core.Category, error)
	UpdateTransactionCategory(ctx context.Context, sess api.Session, id int64, category string, saveAsRule bool) (core.Transaction, error)
	CreateRule(ctx context.Context, sess api.Session, r core.RuleInput) (core.CategoryRule, error)
	UpdateRule(ctx context.Context, sess api.Session, id int64, r core.RuleInput) (core.CategoryRule, error)
	DeleteRule(ctx context.Context, sess api.Session, id int64) error
}

// CategoryNames is the fallback category list when the catalogue cannot be
// fetched.
var CategoryNames = []string{
	"Food & Dining",
	"Shopping",
	"Transportation",
	"Entertainment",
	"Bills & Utilities",
	"Health & Fitness",
	"Travel",
	"Income",
	"Transfer",
	"Other",
}

type TransactionsPage struct {
	Page
	Transactions []core.Transaction
	Rules        []core.CategoryRule
	Categories   []core.Category

	// Selected is the transaction open in the side panel, nil when none.
	Selected     *core.Transaction
	EditCategory string
	SaveAsRule   bool

	api TransactionsAPI
}

func NewTransactionsPage(c TransactionsAPI, env Env) *TransactionsPage {
	return &TransactionsPage{Page: newPage("transactions", env), api: c}
}

func (p *TransactionsPage) Load(ctx context.Context) {
	parallel(
		func() {
			txns, err := p.api.ListTransactions(ctx, p.Session, "")
			if err != nil {
				p.readFailed(ctx, "GET /transactions", err)
				return
			}
			p.Transactions = txns
		},
		p.loadRules(ctx),
		func() {
			cats, err := p.api.ListCategories(ctx, p.Session)
			if err != nil {
				p.readFailed(ctx, "GET /categories", err)
				return
			}
			p.Categories = cats
		},
	)
}

func (p *TransactionsPage) loadRules(ctx context.Context) func() {
	return func() {
		rules, err := p.api.ListRules(ctx, p.Session)
		if err != nil {
			p.readFailed(ctx, "GET /categories/rules", err)
			return
		}
		p.Rules = rules
	}
}

// CategoryOptions lists the selectable categories.
func (p *TransactionsPage) CategoryOptions() []string {
	if len(p.Categories) == 0 {
		return CategoryNames
	}
	out := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, c.Name)
	}
	return out
}

// Select opens the side panel for transaction id. Unknown IDs clear it.
func (p *TransactionsPage) Select(id int64) {
	p.Selected, p.EditCategory, p.SaveAsRule = nil, "", false
	for i := range p.Transactions {
		if p.Transactions[i].ID == id {
			t := p.Transactions[i]
			p.Selected = &t
			p.EditCategory = t.Category
			return
		}
	}
}

// UpdateCategory recategorises the selected transaction and splices the
// server's copy into the list. With saveAsRule the rules are re-fetched.
func (p *TransactionsPage) UpdateCategory(ctx context.Context, id int64, category string, saveAsRule bool) error {
	return p.guarded(ctx, FormUpdateCategory, func() {
		p.Select(id)
		p.EditCategory, p.SaveAsRule = category, saveAsRule
		if strings.TrimSpace(category) == "" {
			p.invalid(FormUpdateCategory, core.ErrEmptyCategory)
			return
		}

		updated, err := p.api.UpdateTransactionCategory(ctx, p.Session, id, category, saveAsRule)
		if err != nil {
			p.writeFailed(ctx, FormUpdateCategory, err, "Failed to update category")
			return
		}
		for i := range p.Transactions {
			if p.Transactions[i].ID == updated.ID {
				p.Transactions[i] = updated
			}
		}
		p.Selected = &updated
		if saveAsRule {
			p.loadRules(ctx)()
		}
		p.alert(NoticeSuccess, "Category updated successfully!")
	})
}

// CreateRule adds a rule keyed on the first word of the selected
// transaction's description and appends it to the rule list.
func (p *TransactionsPage) CreateRule(ctx context.Context, id int64, category string) error {
	return p.guarded(ctx, FormCreateRule, func() {
		p.Select(id)
		p.EditCategory = category
		if p.Selected == nil {
			p.alert(NoticeError, "Failed to create rule")
			return
		}
		in := core.RuleInput{
			Category:       category,
			KeywordPattern: core.FirstWord(p.Selected.Description),
			Priority:       1,
			IsActive:       true,
		}
		if err := in.Validate(); err != nil {
			p.invalid(FormCreateRule, err)
			return
		}

		rule, err := p.api.CreateRule(ctx, p.Session, in)
		if err != nil {
			p.writeFailed(ctx, FormCreateRule, err, "Failed to create rule")
			return
		}
		p.Rules = append(p.Rules, rule)
		p.alert(NoticeSuccess, "Rule created successfully!")
	})
}

// ToggleRule flips a rule between active and paused and splices the server's
// copy into the rule list.
func (p *TransactionsPage) ToggleRule(ctx context.Context, id int64) error {
	return p.guarded(ctx, FormToggleRule, func() {
		i := slices.IndexFunc(p.Rules, func(r core.CategoryRule) bool { return r.ID == id })
		if i < 0 {
			p.alert(NoticeError, "Failed to update rule")
			return
		}
		cur := p.Rules[i]
		updated, err := p.api.UpdateRule(ctx, p.Session, id, core.RuleInput{
			Category:        cur.Category,
			KeywordPattern:  cur.KeywordPattern,
			MerchantPattern: cur.MerchantPattern,
			Priority:        cur.Priority,
			IsActive:        !cur.IsActive,
		})
		if err != nil {
			p.writeFailed(ctx, FormToggleRule, err, "Failed to update rule")
			return
		}
		p.Rules[i] = updated
		if updated.IsActive {
			p.alert(NoticeSuccess, "Rule resumed")
		} else {
			p.alert(NoticeSuccess, "Rule paused")
		}
	})
}

func (p *TransactionsPage) DeleteRule(ctx context.Context, id int64) error {
	return p.guarded(ctx, FormDeleteRule, func() {
		if err := p.api.DeleteRule(ctx, p.Session, id); err != nil {
			p.writeFailed(ctx, FormDeleteRule, err, "Failed to delete rule")
			return
		}
		kept := p.Rules[:0]
		for _, r := range p.Rules {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		p.Rules = kept
	})
}
