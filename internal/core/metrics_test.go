package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTotalIncomeSumsPositiveAmounts(t *testing.T) {
	txns := []Transaction{
		{Amount: dec("50000")},
		{Amount: dec("-1200.50")},
		{Amount: dec("0")},
		{Amount: dec("250.25")},
		{Amount: dec("-10")},
	}
	assert.Equal(t, "50250.25", TotalIncome(txns).String())
	assert.Equal(t, "49039.75", TotalAmount(txns).String())
	assert.True(t, TotalIncome(nil).IsZero())
}

func TestTotalIncomeMatchesPositiveSum(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := r.Intn(20)
		txns := make([]Transaction, n)
		want := decimal.Zero
		for j := range txns {
			amt := decimal.New(r.Int63n(2_000_000)-1_000_000, -2)
			txns[j].Amount = amt
			if amt.GreaterThan(decimal.Zero) {
				want = want.Add(amt)
			}
		}
		require.True(t, want.Equal(TotalIncome(txns)), "iteration %d", i)
	}
}

func TestCategorySharesEvenSplit(t *testing.T) {
	rows := []CategoryAmount{
		{Category: "Food", Amount: dec("500")},
		{Category: "Travel", Amount: dec("500")},
	}
	assert.Equal(t, "1000", TotalExpense(rows).String())

	shares := CategoryShares(rows)
	require.Len(t, shares, 2)
	for _, s := range shares {
		assert.Equal(t, 50.0, s.Percentage)
		assert.Equal(t, "50.0%", s.PercentLabel())
	}
}

func TestCategorySharesUseAbsoluteValues(t *testing.T) {
	rows := []CategoryAmount{
		{Category: "Food", Amount: dec("-300")},
		{Category: "Shopping", Amount: dec("100")},
	}
	shares := CategoryShares(rows)
	assert.Equal(t, 75.0, shares[0].Percentage)
	assert.Equal(t, 25.0, shares[1].Percentage)
	assert.Equal(t, "300", shares[0].Amount.String())
}

func TestCategorySharesZeroTotal(t *testing.T) {
	rows := []CategoryAmount{{Category: "Food", Amount: decimal.Zero}}
	shares := CategoryShares(rows)
	require.Len(t, shares, 1)
	assert.Zero(t, shares[0].Percentage)
	assert.Equal(t, "0.0%", shares[0].PercentLabel())
	assert.Empty(t, CategoryShares(nil))
}

func TestCategorySharesSumToHundred(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 1 + r.Intn(10)
		rows := make([]CategoryAmount, n)
		for j := range rows {
			rows[j] = CategoryAmount{Category: "c", Amount: decimal.New(1+r.Int63n(1_000_000), -2)}
		}
		sum := 0.0
		for _, s := range CategoryShares(rows) {
			sum += s.Percentage
		}
		require.InDelta(t, 100.0, sum, 1e-6, "iteration %d", i)
	}
}

func TestBudgetStatusFor(t *testing.T) {
	cases := []struct {
		pct   float64
		want  BudgetStatus
		color string
	}{
		{0, BudgetOnTrack, "green"},
		{69.99, BudgetOnTrack, "green"},
		{70, BudgetWarning, "yellow"},
		{99.99, BudgetWarning, "yellow"},
		{100, BudgetOver, "red"},
		{250, BudgetOver, "red"},
		{-5, BudgetOnTrack, "green"},
	}
	for _, tc := range cases {
		got := BudgetStatusFor(tc.pct)
		assert.Equal(t, tc.want, got, "pct %v", tc.pct)
		assert.Equal(t, tc.color, got.Color(), "pct %v", tc.pct)
	}
}

func TestBudgetRemaining(t *testing.T) {
	b := Budget{LimitAmount: dec("5000"), SpentAmount: dec("6200"), ProgressPercentage: 124}
	assert.Equal(t, "-1200", b.Remaining().String())
	assert.Equal(t, BudgetOver, b.Status())
}

func TestTotalBalanceAndAccountTypes(t *testing.T) {
	accounts := []Account{
		{BankName: "SBI", AccountType: AccountSavings, Balance: dec("1000.10")},
		{BankName: "HDFC", AccountType: AccountCredit, Balance: dec("-200")},
		{BankName: "ICICI", AccountType: AccountSavings, Balance: dec("50")},
	}
	assert.Equal(t, "850.1", TotalBalance(accounts).String())
	assert.Equal(t, []AccountType{AccountSavings, AccountCredit}, AccountTypes(accounts))
	assert.Empty(t, AccountTypes(nil))
}

func TestTotalPoints(t *testing.T) {
	assert.Equal(t, int64(350), TotalPoints([]Reward{{Points: 100}, {Points: 250}}))
	assert.Zero(t, TotalPoints(nil))
}

func TestFilterByMonth(t *testing.T) {
	at := func(y int, m time.Month, d int) Timestamp {
		return Timestamp{Time: time.Date(y, m, d, 12, 0, 0, 0, time.UTC)}
	}
	txns := []Transaction{
		{ID: 1, CreatedAt: at(2024, 2, 28)},
		{ID: 2, CreatedAt: at(2024, 3, 1)},
		{ID: 3, CreatedAt: at(2024, 3, 31)},
		{ID: 4, CreatedAt: at(2023, 3, 15)},
	}
	got := FilterByMonth(txns, Month{Year: 2024, Month: time.March})
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestUnreadCountAndBadgeLabel(t *testing.T) {
	alerts := []Alert{{IsRead: false}, {IsRead: true}, {IsRead: false}}
	assert.Equal(t, 2, UnreadCount(alerts))

	assert.Equal(t, "", BadgeLabel(0))
	assert.Equal(t, "", BadgeLabel(-3))
	assert.Equal(t, "7", BadgeLabel(7))
	assert.Equal(t, "99", BadgeLabel(99))
	assert.Equal(t, "99+", BadgeLabel(100))
}

func TestChartSeries(t *testing.T) {
	got := ChartSeries([]Transaction{{Amount: dec("10")}, {Amount: dec("-4")}})
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].Label)
	assert.Equal(t, "T2", got[1].Label)
	assert.Equal(t, "-4", got[1].Value.String())
}

func TestFirstWord(t *testing.T) {
	assert.Equal(t, "Swiggy", FirstWord("  Swiggy order #1234"))
	assert.Equal(t, "", FirstWord("   "))
}

func TestKYCStatusOrDefault(t *testing.T) {
	assert.Equal(t, KYCPending, KYCStatusOrDefault(User{}))
	assert.Equal(t, "Verified", KYCStatusOrDefault(User{KYCStatus: "Verified"}))
}
