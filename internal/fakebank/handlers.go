package fakebank

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bankpro/internal/core"
)

// Categories is the predefined catalogue served by GET /categories.
var Categories = []core.Category{
	{Name: "Food & Dining", Icon: "restaurant", Color: "#FF6B6B"},
	{Name: "Shopping", Icon: "shopping_cart", Color: "#4ECDC4"},
	{Name: "Transportation", Icon: "car", Color: "#45B7D1"},
	{Name: "Entertainment", Icon: "film", Color: "#F7DC6F"},
	{Name: "Bills & Utilities", Icon: "lightning", Color: "#BB8FCE"},
	{Name: "Health & Fitness", Icon: "health", Color: "#85C1E2"},
	{Name: "Travel", Icon: "flight", Color: "#F8B88B"},
	{Name: "Income", Icon: "trending_up", Color: "#52C41A"},
	{Name: "Transfer", Icon: "swap", Color: "#1890FF"},
	{Name: "Other", Icon: "more_horiz", Color: "#BFBFBF"},
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := []core.Account{}
	for _, a := range s.accounts {
		if a.UserID == uid {
			out = append(out, a)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in core.NewAccount
	if !decode(w, r, &in) {
		return
	}
	uid := userFrom(r.Context())
	if in.UserID != 0 && in.UserID != uid {
		writeDetail(w, http.StatusForbidden, "Not authorized for this user")
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid account: "+err.Error())
		return
	}

	s.mu.Lock()
	acc := core.Account{ID: s.id(), UserID: uid, BankName: in.BankName, AccountType: in.AccountType, Balance: in.Balance}
	s.accounts = append(s.accounts, acc)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, acc)
}

// ownTransactions returns uid's transactions. Callers hold s.mu.
func (s *Server) ownTransactions(uid int64) []core.Transaction {
	owned := make(map[int64]bool)
	for _, a := range s.accounts {
		if a.UserID == uid {
			owned[a.ID] = true
		}
	}
	var out []core.Transaction
	for _, t := range s.transactions {
		if owned[t.AccountID] {
			out = append(out, t)
		}
	}
	return out
}

func monthFilter(w http.ResponseWriter, r *http.Request) (core.Month, bool, bool) {
	v := r.URL.Query().Get("month")
	if v == "" {
		return core.Month{}, false, true
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "month must be YYYY-MM")
		return core.Month{}, false, false
	}
	return m, true, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	month, filtered, ok := monthFilter(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	txns := s.ownTransactions(uid)
	s.mu.Unlock()
	if filtered {
		txns = core.FilterByMonth(txns, month)
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Category string `json:"category"`
	}
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Category) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Category is required")
		return
	}
	saveAsRule, _ := strconv.ParseBool(r.URL.Query().Get("save_as_rule"))
	uid := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	owned := s.ownTransactions(uid)
	for i := range s.transactions {
		t := &s.transactions[i]
		if t.ID != id {
			continue
		}
		if !containsID(owned, id) {
			break
		}
		t.Category = in.Category
		if saveAsRule {
			s.rules = append(s.rules, core.CategoryRule{
				ID:             s.id(),
				UserID:         uid,
				Category:       in.Category,
				KeywordPattern: strings.ToLower(core.FirstWord(t.Description)),
				Priority:       1,
				IsActive:       true,
				CreatedAt:      s.timestamp(),
			})
		}
		writeJSON(w, http.StatusOK, *t)
		return
	}
	writeDetail(w, http.StatusNotFound, "Transaction not found")
}

func containsID(txns []core.Transaction, id int64) bool {
	for _, t := range txns {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Categories)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := []core.CategoryRule{}
	for _, rule := range s.rules {
		if rule.UserID == uid {
			out = append(out, rule)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	var in core.RuleInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Category is required")
		return
	}

	s.mu.Lock()
	rule := core.CategoryRule{
		ID:              s.id(),
		UserID:          uid,
		Category:        in.Category,
		KeywordPattern:  in.KeywordPattern,
		MerchantPattern: in.MerchantPattern,
		Priority:        in.Priority,
		IsActive:        in.IsActive,
		CreatedAt:       s.timestamp(),
	}
	s.rules = append(s.rules, rule)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in core.RuleInput
	if !decode(w, r, &in) {
		return
	}
	uid := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		rule := &s.rules[i]
		if rule.ID != id || rule.UserID != uid {
			continue
		}
		if in.Category != "" {
			rule.Category = in.Category
		}
		rule.KeywordPattern = in.KeywordPattern
		rule.MerchantPattern = in.MerchantPattern
		rule.Priority = in.Priority
		rule.IsActive = in.IsActive
		writeJSON(w, http.StatusOK, *rule)
		return
	}
	writeDetail(w, http.StatusNotFound, "Category rule not found")
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	uid := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rule := range s.rules {
		if rule.ID == id && rule.UserID == uid {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Category rule deleted successfully"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Category rule not found")
}

// withProgress fills the server-derived budget fields from uid's
// transactions. Callers hold s.mu.
func (s *Server) withProgress(b core.Budget) core.Budget {
	month, err := core.ParseMonth(b.Month)
	spent := decimal.Zero
	if err == nil {
		for _, t := range core.FilterByMonth(s.ownTransactions(b.UserID), month) {
			if t.Amount.IsNegative() && t.Category == b.Category {
				spent = spent.Add(t.Amount.Abs())
			}
		}
	}
	b.SpentAmount = spent
	b.ProgressPercentage = 0
	if b.LimitAmount.IsPositive() {
		b.ProgressPercentage = spent.Div(b.LimitAmount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	b.IsOverBudget = spent.GreaterThan(b.LimitAmount)
	return b
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	month := r.URL.Query().Get("month")

	s.mu.Lock()
	out := []core.Budget{}
	for _, b := range s.budgets {
		if b.UserID == uid && (month == "" || b.Month == month) {
			out = append(out, s.withProgress(b))
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	var in core.BudgetInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid budget: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == uid && b.Month == in.Month && b.Category == in.Category {
			writeDetail(w, http.StatusBadRequest, "Budget already exists for this category and month")
			return
		}
	}
	b := core.Budget{ID: s.id(), UserID: uid, Category: in.Category, LimitAmount: in.LimitAmount, Month: in.Month}
	s.budgets = append(s.budgets, b)
	writeJSON(w, http.StatusOK, s.withProgress(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in core.BudgetInput
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid budget: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		b := &s.budgets[i]
		if b.ID != id || b.UserID != uid {
			continue
		}
		b.Category = in.Category
		b.LimitAmount = in.LimitAmount
		b.Month = in.Month
		writeJSON(w, http.StatusOK, s.withProgress(*b))
		return
	}
	writeDetail(w, http.StatusNotFound, "Budget not found")
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.ID == id && b.UserID == uid {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Budget deleted successfully"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Budget not found")
}

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	month, filtered, ok := monthFilter(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	txns := s.ownTransactions(uid)
	s.mu.Unlock()
	if filtered {
		txns = core.FilterByMonth(txns, month)
	}

	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if !t.Amount.IsNegative() || strings.TrimSpace(t.Category) == "" {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount.Abs())
	}
	out := make([]core.CategoryAmount, 0, len(totals))
	for cat, amt := range totals {
		out = append(out, core.CategoryAmount{Category: cat, Amount: amt.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	var accounts []core.Account
	for _, a := range s.accounts {
		if a.UserID == uid {
			accounts = append(accounts, a)
		}
	}
	out := core.Summary{
		TotalAccounts:     len(accounts),
		TotalTransactions: len(s.ownTransactions(uid)),
		TotalUsers:        len(s.users),
		TotalBalance:      core.TotalBalance(accounts),
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := []core.Alert{}
	for _, a := range s.alerts {
		if a.UserID == uid {
			out = append(out, a)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	n := 0
	for _, a := range s.alerts {
		if a.UserID == uid && !a.IsRead {
			n++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": n})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		IsRead *bool `json:"is_read"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.IsRead == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "is_read is required")
		return
	}
	uid := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		a := &s.alerts[i]
		if a.ID == id && a.UserID == uid {
			a.IsRead = *in.IsRead
			writeJSON(w, http.StatusOK, *a)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Alert not found")
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	n := 0
	for i := range s.alerts {
		if s.alerts[i].UserID == uid && !s.alerts[i].IsRead {
			s.alerts[i].IsRead = true
			n++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	uid := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.alerts {
		if a.ID == id && a.UserID == uid {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Alert deleted successfully"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Alert not found")
}

func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	uid, ok := scopedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := []core.Reward{}
	for _, rw := range s.rewards {
		if rw.UserID == uid {
			out = append(out, rw)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
