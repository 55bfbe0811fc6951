package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Budget progress thresholds, in percent.
const (
	BudgetWarningPct = 70.0
	BudgetOverPct    = 100.0
)

// Badge labels saturate above this count.
const BadgeMax = 99

type BudgetStatus string

const (
	BudgetOnTrack BudgetStatus = "on-track"
	BudgetWarning BudgetStatus = "warning"
	BudgetOver    BudgetStatus = "over-budget"
)

type (
	// CategoryAmount is a spending-by-category row. Amount is expense-only but
	// may arrive signed.
	CategoryAmount struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	CategoryShare struct {
		Category   string
		Amount     decimal.Decimal
		Percentage float64
	}

	// Category is an entry of the backend's predefined category catalogue.
	Category struct {
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	// Summary is the backend's portfolio overview.
	Summary struct {
		TotalAccounts     int             `json:"total_accounts"`
		TotalTransactions int             `json:"total_transactions"`
		TotalUsers        int             `json:"total_users"`
		TotalBalance      decimal.Decimal `json:"total_balance"`
	}

	ChartPoint struct {
		Label string
		Value decimal.Decimal
	}
)

// Color maps the status to the palette used by the budget page.
func (s BudgetStatus) Color() string {
	switch s {
	case BudgetOver:
		return "red"
	case BudgetWarning:
		return "yellow"
	default:
		return "green"
	}
}

func (s BudgetStatus) Label() string {
	switch s {
	case BudgetOver:
		return "Over budget"
	case BudgetWarning:
		return "Warning"
	default:
		return "On track"
	}
}

// BudgetStatusFor classifies a progress percentage.
func BudgetStatusFor(pct float64) BudgetStatus {
	switch {
	case pct >= BudgetOverPct:
		return BudgetOver
	case pct >= BudgetWarningPct:
		return BudgetWarning
	default:
		return BudgetOnTrack
	}
}

// Status classifies the budget by its server-computed progress.
func (b Budget) Status() BudgetStatus {
	return BudgetStatusFor(b.ProgressPercentage)
}

// Remaining is limit minus spent; negative when over budget.
func (b Budget) Remaining() decimal.Decimal {
	return b.LimitAmount.Sub(b.SpentAmount)
}

// TotalIncome sums the strictly positive transaction amounts.
func TotalIncome(txns []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.Amount.IsPositive() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalAmount is the signed sum of all transaction amounts.
func TotalAmount(txns []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}

// TotalExpense sums the absolute category amounts.
func TotalExpense(rows []CategoryAmount) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount.Abs())
	}
	return total
}

// CategoryShares computes each row's share of TotalExpense. All shares are 0
// when the total is 0.
func CategoryShares(rows []CategoryAmount) []CategoryShare {
	total := TotalExpense(rows)
	out := make([]CategoryShare, 0, len(rows))
	for _, r := range rows {
		share := CategoryShare{Category: r.Category, Amount: r.Amount.Abs()}
		if total.IsPositive() {
			share.Percentage = r.Amount.Abs().Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		out = append(out, share)
	}
	return out
}

// PercentLabel formats the share with one decimal, e.g. "50.0%".
func (s CategoryShare) PercentLabel() string {
	return FormatPercent(s.Percentage)
}

func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// TotalBalance sums account balances.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// AccountTypes returns the distinct account types in first-seen order.
func AccountTypes(accounts []Account) []AccountType {
	seen := make(map[AccountType]bool, len(accounts))
	var out []AccountType
	for _, a := range accounts {
		if seen[a.AccountType] {
			continue
		}
		seen[a.AccountType] = true
		out = append(out, a.AccountType)
	}
	return out
}

// TotalPoints sums reward points.
func TotalPoints(rewards []Reward) int64 {
	var total int64
	for _, r := range rewards {
		total += r.Points
	}
	return total
}

// FilterByMonth keeps the transactions created in m, preserving order.
func FilterByMonth(txns []Transaction, m Month) []Transaction {
	var out []Transaction
	for _, t := range txns {
		if m.Contains(t.CreatedAt.Time) {
			out = append(out, t)
		}
	}
	return out
}

// UnreadCount counts alerts with IsRead false.
func UnreadCount(alerts []Alert) int {
	n := 0
	for _, a := range alerts {
		if !a.IsRead {
			n++
		}
	}
	return n
}

// BadgeLabel renders an unread count for the navigation badge.
func BadgeLabel(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > BadgeMax:
		return fmt.Sprintf("%d+", BadgeMax)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// ChartSeries labels transactions T1..Tn in list order.
func ChartSeries(txns []Transaction) []ChartPoint {
	out := make([]ChartPoint, 0, len(txns))
	for i, t := range txns {
		out = append(out, ChartPoint{Label: fmt.Sprintf("T%d", i+1), Value: t.Amount})
	}
	return out
}

// FirstWord returns the first whitespace separated word of a description,
// used as a rule keyword.
func FirstWord(description string) string {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// KYCStatusOrDefault returns the user's KYC status, Pending when unset.
func KYCStatusOrDefault(u User) string {
	if strings.TrimSpace(u.KYCStatus) == "" {
		return KYCPending
	}
	return u.KYCStatus
}
