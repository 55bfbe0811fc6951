package core

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{`"2024-01-15T10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15T10:30:00.123456"`, time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC)},
		{`"2024-01-15T10:30:00Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15"`, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		var ts Timestamp
		require.NoError(t, ts.UnmarshalJSON([]byte(tc.in)), tc.in)
		assert.True(t, tc.want.Equal(ts.Time), "%s: got %v", tc.in, ts.Time)
	}

	var ts Timestamp
	require.NoError(t, ts.UnmarshalJSON([]byte("null")))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.UnmarshalJSON([]byte(`"yesterday"`)))
}

func TestTransactionDecodeNullCategory(t *testing.T) {
	raw := `{"id":3,"description":"Swiggy order","amount":-450.5,"category":null,"created_at":"2024-03-02T19:04:11"}`

	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &txn))

	assert.Equal(t, int64(3), txn.ID)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("-450.5")))
	assert.Equal(t, "", txn.Category)
	assert.Equal(t, "Uncategorized", txn.CategoryOrDefault())
	assert.False(t, txn.IsIncome())
	assert.Equal(t, time.March, txn.CreatedAt.Month())
}

func TestAccountTypeIsValid(t *testing.T) {
	for _, at := range AllAccountTypes() {
		assert.True(t, at.IsValid(), at)
	}
	assert.False(t, AccountType("Loan").IsValid())
	assert.False(t, AccountType("").IsValid())
}

func TestNewAccountValidate(t *testing.T) {
	good := NewAccount{BankName: "SBI", AccountType: AccountSavings, Balance: decimal.NewFromInt(100)}
	require.NoError(t, good.Validate())

	bads := []struct {
		acc NewAccount
		err error
	}{
		{NewAccount{BankName: " ", AccountType: AccountSavings}, ErrEmptyBankName},
		{NewAccount{BankName: "HDFC", AccountType: "Loan"}, ErrInvalidAccountType},
	}
	for i, tc := range bads {
		assert.ErrorIs(t, tc.acc.Validate(), tc.err, "case %d", i)
	}
}

func TestBudgetInputValidate(t *testing.T) {
	good := BudgetInput{Category: "Food & Dining", LimitAmount: decimal.NewFromInt(5000), Month: "2024-03"}
	require.NoError(t, good.Validate())

	assert.ErrorIs(t, BudgetInput{LimitAmount: decimal.NewFromInt(1), Month: "2024-03"}.Validate(), ErrEmptyCategory)
	assert.ErrorIs(t, BudgetInput{Category: "Food", Month: "2024-03"}.Validate(), ErrInvalidAmount)
	assert.ErrorIs(t, BudgetInput{Category: "Food", LimitAmount: decimal.NewFromInt(1), Month: "March"}.Validate(), ErrInvalidMonth)
}

func TestRegistrationValidate(t *testing.T) {
	assert.ErrorIs(t, Registration{Password: "x"}.Validate(), ErrEmptyEmail)
	assert.Error(t, Registration{Email: "a@b.in"}.Validate())
	assert.NoError(t, Registration{Email: "a@b.in", Password: "x"}.Validate())
}
