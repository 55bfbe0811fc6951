package fakebank

import (
	"time"

	"github.com/shopspring/decimal"

	"bankpro/internal/core"
)

func (s *Server) SeedAccount(userID int64, bank string, typ core.AccountType, balance string) core.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := core.Account{ID: s.id(), UserID: userID, BankName: bank, AccountType: typ, Balance: decimal.RequireFromString(balance)}
	s.accounts = append(s.accounts, a)
	return a
}

// SeedTransaction records a transaction on accountID. A zero at uses the
// server clock.
func (s *Server) SeedTransaction(accountID int64, description, amount, category string, at time.Time) core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.timestamp()
	if !at.IsZero() {
		ts = core.Timestamp{Time: at.UTC()}
	}
	t := core.Transaction{
		ID:          s.id(),
		AccountID:   accountID,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		CreatedAt:   ts,
	}
	s.transactions = append(s.transactions, t)
	return t
}

func (s *Server) SeedAlert(userID int64, title, message string, typ core.AlertType, read bool) core.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := core.Alert{ID: s.id(), UserID: userID, Title: title, Message: message, AlertType: typ, IsRead: read, CreatedAt: s.timestamp()}
	s.alerts = append(s.alerts, a)
	return a
}

func (s *Server) SeedReward(userID, points int64, description string) core.Reward {
	s.mu.Lock()
	defer s.mu.Unlock()
	earned := s.timestamp()
	r := core.Reward{
		ID:          s.id(),
		UserID:      userID,
		Points:      points,
		Description: description,
		EarnedDate:  earned,
		ExpiresDate: core.Timestamp{Time: earned.AddDate(1, 0, 0)},
	}
	s.rewards = append(s.rewards, r)
	return r
}

func (s *Server) SeedBudget(userID int64, category, limit, month string) core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := core.Budget{ID: s.id(), UserID: userID, Category: category, LimitAmount: decimal.RequireFromString(limit), Month: month}
	s.budgets = append(s.budgets, b)
	return s.withProgress(b)
}

func (s *Server) SeedRule(userID int64, category, keyword string) core.CategoryRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := core.CategoryRule{ID: s.id(), UserID: userID, Category: category, KeywordPattern: keyword, Priority: 1, IsActive: true, CreatedAt: s.timestamp()}
	s.rules = append(s.rules, r)
	return r
}

// Alerts returns a copy of uid's stored alerts.
func (s *Server) Alerts(userID int64) []core.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Alert
	for _, a := range s.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}
