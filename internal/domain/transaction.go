package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one bank transaction as reported by the account provider.
// Amount follows the provider's sign convention: positive = money spent
// (debit), negative = money received (credit/refund).
type Transaction struct {
	ID             string
	Date           time.Time
	AuthorizedDate time.Time
	Name           string // merchant / description
	Amount         decimal.Decimal
	Categories     []string
	Pending        bool

	// Stock-trade fields, zero-valued for ordinary transactions.
	Ticker        string
	Shares        decimal.Decimal
	PricePerShare decimal.Decimal
	Fees          decimal.Decimal
	TradeType     string // "buy" or "sell"
}

// Category returns the transaction's primary category label.
func (t *Transaction) Category() string {
	if len(t.Categories) == 0 || t.Categories[0] == "" {
		return "Uncategorized"
	}
	return t.Categories[0]
}

// IsStock reports whether the transaction records a stock trade.
func (t *Transaction) IsStock() bool { return t.Ticker != "" }

// LargestTransaction is the single biggest debit in a summary window.
type LargestTransaction struct {
	Name     string
	Amount   decimal.Decimal
	Date     time.Time
	Category string
}

// Summary is the per-user spend summary for one digest run. It is computed
// fresh on every run and never persisted.
type Summary struct {
	TotalCount int
	// StockTrades counts settled transactions that record a trade.
	StockTrades int
	TotalSpent  decimal.Decimal
	// Categories maps category -> spend total (debits only).
	Categories map[string]decimal.Decimal
	// CategoryOrder preserves first-seen order so top-3 selection has a
	// stable tie-break.
	CategoryOrder []string
	Largest       *LargestTransaction
	// Budgets is the user's stored budget map, merged in unmodified.
	Budgets map[string]decimal.Decimal
}

// NewSummary builds a Summary over the given transactions. Pending
// transactions are skipped entirely, settled credits count toward TotalCount
// only; positive (debit) amounts drive TotalSpent, category totals and the
// largest transaction.
func NewSummary(txs []Transaction) Summary {
	s := Summary{
		TotalSpent: decimal.Zero,
		Categories: make(map[string]decimal.Decimal),
	}
	for i := range txs {
		tx := &txs[i]
		if tx.Pending {
			continue
		}
		s.TotalCount++
		if tx.IsStock() {
			s.StockTrades++
		}
		if tx.Amount.Sign() <= 0 {
			// Credit or refund; never counts as spend.
			continue
		}
		s.TotalSpent = s.TotalSpent.Add(tx.Amount)

		cat := tx.Category()
		if _, ok := s.Categories[cat]; !ok {
			s.CategoryOrder = append(s.CategoryOrder, cat)
		}
		s.Categories[cat] = s.Categories[cat].Add(tx.Amount)

		if s.Largest == nil || tx.Amount.GreaterThan(s.Largest.Amount) {
			s.Largest = &LargestTransaction{
				Name:     tx.Name,
				Amount:   tx.Amount,
				Date:     tx.Date,
				Category: cat,
			}
		}
	}
	return s
}

// TopCategories returns up to n categories by spend descending. Equal totals
// keep their first-seen order.
func (s *Summary) TopCategories(n int) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(s.CategoryOrder))
	for _, cat := range s.CategoryOrder {
		out = append(out, CategoryTotal{Category: cat, Total: s.Categories[cat]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryTotal is one category's aggregated spend.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}
