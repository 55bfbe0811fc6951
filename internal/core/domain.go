// Package core holds the banking entities consumed from the backend and the
// display metrics derived from them.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountSavings AccountType = "Savings"
	AccountCurrent AccountType = "Current"
	AccountCredit  AccountType = "Credit"
)

const (
	AlertInfo           AlertType = "info"
	AlertWarning        AlertType = "warning"
	AlertError          AlertType = "error"
	AlertBudgetExceeded AlertType = "budget_exceeded"
)

// KYCPending is what the backend assigns to users that have not been verified yet.
const KYCPending = "Pending"

type (
	AccountType string

	AlertType string

	// Timestamp accepts the backend's naive ISO timestamps as well as RFC 3339.
	Timestamp struct {
		time.Time
	}

	Account struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id,omitempty"`
		BankName    string          `json:"bank_name"`
		AccountType AccountType     `json:"account_type"`
		Balance     decimal.Decimal `json:"balance"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		AccountID   int64           `json:"account_id,omitempty"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"` // empty until classified
		CreatedAt   Timestamp       `json:"created_at"`
	}

	CategoryRule struct {
		ID              int64     `json:"id"`
		UserID          int64     `json:"user_id,omitempty"`
		Category        string    `json:"category"`
		KeywordPattern  string    `json:"keyword_pattern"`
		MerchantPattern string    `json:"merchant_pattern,omitempty"`
		Priority        int       `json:"priority"`
		IsActive        bool      `json:"is_active"`
		CreatedAt       Timestamp `json:"created_at"`
	}

	// Budget is owned by the backend; SpentAmount, ProgressPercentage and
	// IsOverBudget are computed there and only displayed here.
	Budget struct {
		ID                 int64           `json:"id"`
		UserID             int64           `json:"user_id,omitempty"`
		Category           string          `json:"category"`
		LimitAmount        decimal.Decimal `json:"limit_amount"`
		SpentAmount        decimal.Decimal `json:"spent_amount"`
		Month              string          `json:"month"`
		ProgressPercentage float64         `json:"progress_percentage"`
		IsOverBudget       bool            `json:"is_over_budget"`
	}

	Alert struct {
		ID        int64     `json:"id"`
		UserID    int64     `json:"user_id,omitempty"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		AlertType AlertType `json:"alert_type"`
		IsRead    bool      `json:"is_read"`
		CreatedAt Timestamp `json:"created_at"`
	}

	User struct {
		ID        int64  `json:"id"`
		Name      string `json:"name,omitempty"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
		KYCStatus string `json:"kyc_status,omitempty"`
	}

	Reward struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"user_id,omitempty"`
		Points      int64     `json:"points"`
		Description string    `json:"description"`
		EarnedDate  Timestamp `json:"earned_date"`
		ExpiresDate Timestamp `json:"expires_date"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrEmptyBankName      = errors.New("empty bank name")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyEmail         = errors.New("empty email")
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return errors.New("invalid timestamp: " + s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// IsValid returns true for the account types the backend accepts.
func (at AccountType) IsValid() bool {
	switch at {
	case AccountSavings, AccountCurrent, AccountCredit:
		return true
	default:
		return false
	}
}

// AllAccountTypes lists the selectable account types in form order.
func AllAccountTypes() []AccountType {
	return []AccountType{AccountSavings, AccountCurrent, AccountCredit}
}

// IsIncome reports whether the transaction credits the account.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// CategoryOrDefault returns the category label shown in tables.
func (t Transaction) CategoryOrDefault() string {
	if strings.TrimSpace(t.Category) == "" {
		return "Uncategorized"
	}
	return t.Category
}

// IsUnread is the inverse of IsRead, handy in templates.
func (a Alert) IsUnread() bool {
	return !a.IsRead
}

// NewAccount is the payload of the add-account form.
type NewAccount struct {
	UserID      int64           `json:"user_id"`
	BankName    string          `json:"bank_name"`
	AccountType AccountType     `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
}

func (a NewAccount) Validate() error {
	if strings.TrimSpace(a.BankName) == "" {
		return ErrEmptyBankName
	}
	if !a.AccountType.IsValid() {
		return ErrInvalidAccountType
	}
	return nil
}

// BudgetInput is the create/update payload for budgets.
type BudgetInput struct {
	UserID      int64           `json:"user_id"`
	Category    string          `json:"category"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
	Month       string          `json:"month"`
}

func (b BudgetInput) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.LimitAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if _, err := ParseMonth(b.Month); err != nil {
		return err
	}
	return nil
}

// RuleInput is the create/update payload for category rules.
type RuleInput struct {
	Category        string `json:"category"`
	KeywordPattern  string `json:"keyword_pattern"`
	MerchantPattern string `json:"merchant_pattern,omitempty"`
	Priority        int    `json:"priority"`
	IsActive        bool   `json:"is_active"`
}

func (r RuleInput) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Registration is the payload of the register form.
type Registration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	KYCStatus string `json:"kyc_status"`
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyEmail
	}
	if r.Password == "" {
		return errors.New("empty password")
	}
	return nil
}
