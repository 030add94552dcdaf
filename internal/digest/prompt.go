package digest

import (
	"fmt"
	"strings"

	"github.com/finnai/digest-bot/internal/domain"
)

// BuildPrompt renders the structured prompt for the narrative section. It
// embeds the same summary, budget, market and news data the deterministic
// sections show, and spells out the provider's amount sign convention so the
// model does not invert spend and refunds.
func BuildPrompt(user *domain.User, summary domain.Summary, mctx domain.MarketContext) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant writing the insights section of a weekly digest.\n")
	b.WriteString("Amounts follow the bank's convention: positive = money spent, negative = money received (refund or deposit).\n")
	b.WriteString("Write at most 120 words of plain text, no markdown, no greetings. ")
	b.WriteString("Compare spending against the budget where one exists and mention at most one market observation.\n\n")

	fmt.Fprintf(&b, "User: %s\n", user.DisplayName())
	fmt.Fprintf(&b, "Transactions this week: %d\n", summary.TotalCount)
	fmt.Fprintf(&b, "Total spent: $%s\n", summary.TotalSpent.StringFixed(2))
	if summary.StockTrades > 0 {
		fmt.Fprintf(&b, "Stock trades this week: %d\n", summary.StockTrades)
	}

	if len(summary.CategoryOrder) > 0 {
		b.WriteString("Spending by category:\n")
		for _, cat := range summary.CategoryOrder {
			fmt.Fprintf(&b, "  %s: $%s\n", cat, summary.Categories[cat].StringFixed(2))
		}
	}
	if lt := summary.Largest; lt != nil {
		fmt.Fprintf(&b, "Largest transaction: %s, $%s on %s\n",
			lt.Name, lt.Amount.StringFixed(2), lt.Date.Format("2006-01-02"))
	}
	if user.TargetBalance.IsPositive() {
		fmt.Fprintf(&b, "Savings target: $%s\n", user.TargetBalance.StringFixed(2))
	}
	if len(summary.Budgets) > 0 {
		b.WriteString("Monthly budgets:\n")
		for _, cat := range sortedKeys(summary.Budgets) {
			fmt.Fprintf(&b, "  %s: $%s\n", cat, summary.Budgets[cat].StringFixed(2))
		}
	}

	writeQuotes := func(label string, quotes map[string]domain.Quote) {
		lines := make([]string, 0, len(quotes))
		for _, key := range sortedKeys(quotes) {
			if q := quotes[key]; q.OK() {
				lines = append(lines, fmt.Sprintf("  %s: %.2f (%+.2f%%)", key, q.Price, q.ChangePct))
			}
		}
		if len(lines) > 0 {
			b.WriteString(label + "\n" + strings.Join(lines, "\n") + "\n")
		}
	}
	writeQuotes("Market indices:", mctx.Indices)
	writeQuotes("Watchlist:", mctx.Quotes)

	headlines := make([]string, 0, marketNewsLimit)
	for _, item := range mctx.MarketNews {
		headlines = append(headlines, "  "+item.Title)
	}
	if len(headlines) > 0 {
		b.WriteString("Market headlines:\n" + strings.Join(headlines, "\n") + "\n")
	}

	return b.String()
}
