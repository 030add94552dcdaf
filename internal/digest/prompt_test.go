package digest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/finnai/digest-bot/internal/domain"
)

func TestBuildPrompt_StatesSignConvention(t *testing.T) {
	p := BuildPrompt(testUser(), weekSummary(), marketContext())

	assert.Contains(t, p, "positive = money spent, negative = money received")
	assert.Contains(t, p, "Total spent: $50.00")
	assert.Contains(t, p, "Groceries: $50.00")
}

func TestBuildPrompt_OptionalLines(t *testing.T) {
	user := testUser()
	user.TargetBalance = decimal.RequireFromString("5000")

	summary := domain.NewSummary([]domain.Transaction{
		{ID: "1", Name: "Coffee", Amount: amt("4.50"), Categories: []string{"Food"}},
		{ID: "2", Name: "Buy stock: AAPL", Ticker: "AAPL", Shares: amt("2"),
			PricePerShare: amt("210"), TradeType: "buy"},
	})

	p := BuildPrompt(user, summary, domain.MarketContext{})
	assert.Contains(t, p, "Savings target: $5000.00")
	assert.Contains(t, p, "Stock trades this week: 1")

	bare := BuildPrompt(testUser(), weekSummary(), domain.MarketContext{})
	assert.NotContains(t, bare, "Savings target")
	assert.NotContains(t, bare, "Stock trades")
}
