package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewSummary_Totals(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Name: "Grocery Store", Amount: amt("50.00"), Categories: []string{"Groceries"}},
		{ID: "2", Name: "Refund", Amount: amt("-20.00"), Categories: []string{"Groceries"}},
		{ID: "3", Name: "Gas Station", Amount: amt("35.25"), Categories: []string{"Travel", "Gas"}},
		{ID: "4", Name: "Pending Coffee", Amount: amt("4.50"), Categories: []string{"Food"}, Pending: true},
		{ID: "5", Name: "Payroll", Amount: amt("-1500.00")},
	}

	s := NewSummary(txs)

	assert.Equal(t, 4, s.TotalCount, "pending excluded from the count")
	assert.True(t, s.TotalSpent.Equal(amt("85.25")), "total spent %s", s.TotalSpent)
	assert.True(t, s.Categories["Groceries"].Equal(amt("50.00")), "refund must not reduce category total")
	assert.True(t, s.Categories["Travel"].Equal(amt("35.25")), "first label wins")
	assert.NotContains(t, s.Categories, "Food", "pending excluded")
	assert.NotContains(t, s.Categories, "Uncategorized", "credits carry no category total")

	require.NotNil(t, s.Largest)
	assert.Equal(t, "Grocery Store", s.Largest.Name)
	assert.True(t, s.Largest.Amount.Equal(amt("50.00")))
}

func TestNewSummary_Empty(t *testing.T) {
	s := NewSummary(nil)
	assert.Equal(t, 0, s.TotalCount)
	assert.True(t, s.TotalSpent.IsZero())
	assert.Nil(t, s.Largest)
	assert.Empty(t, s.Categories)
}

func TestNewSummary_AllCreditsHaveNoLargest(t *testing.T) {
	s := NewSummary([]Transaction{
		{ID: "1", Name: "Refund A", Amount: amt("-10.00")},
		{ID: "2", Name: "Refund B", Amount: amt("-90.00")},
	})
	assert.Equal(t, 2, s.TotalCount)
	assert.True(t, s.TotalSpent.IsZero())
	assert.Nil(t, s.Largest, "a credit must never become the largest transaction")
}

func TestTopCategories_OrderAndTieBreak(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Amount: amt("10.00"), Categories: []string{"Food"}},
		{ID: "2", Amount: amt("30.00"), Categories: []string{"Rent"}},
		{ID: "3", Amount: amt("10.00"), Categories: []string{"Gas"}},
		{ID: "4", Amount: amt("20.00"), Categories: []string{"Fun"}},
	}
	s := NewSummary(txs)

	top := s.TopCategories(3)
	require.Len(t, top, 3)
	assert.Equal(t, "Rent", top[0].Category)
	assert.Equal(t, "Fun", top[1].Category)
	// Food and Gas tie at 10.00; Food was seen first.
	assert.Equal(t, "Food", top[2].Category)
}

func TestTransactionCategory_Default(t *testing.T) {
	tx := Transaction{}
	assert.Equal(t, "Uncategorized", tx.Category())

	tx.Categories = []string{"Investment", "Stock"}
	assert.Equal(t, "Investment", tx.Category())
}

func TestTransactionIsStock(t *testing.T) {
	buy := Transaction{
		Ticker:        "AAPL",
		Shares:        amt("61"),
		PricePerShare: amt("108.16"),
		Fees:          amt("1.20"),
		TradeType:     "buy",
		Date:          time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, buy.IsStock())
	assert.False(t, (&Transaction{Name: "Groceries"}).IsStock())

	s := NewSummary([]Transaction{buy, {Name: "Groceries", Amount: amt("12.00")}})
	assert.Equal(t, 1, s.StockTrades)
}
