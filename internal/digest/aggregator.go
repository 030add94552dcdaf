// Package digest assembles and renders the per-user financial digest.
package digest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/bank"
	"github.com/finnai/digest-bot/internal/domain"
)

// Trailing windows and per-section caps for one digest run.
const (
	transactionDays = 7
	tickerNewsLimit = 3
	marketNewsLimit = 2
)

// indexNames maps index symbols to display names for the digest.
var indexNames = map[string]string{
	"^GSPC": "S&P 500",
	"^DJI":  "Dow Jones",
	"^IXIC": "NASDAQ",
}

// TransactionSource provides a user's recent bank transactions.
type TransactionSource interface {
	RecentTransactions(ctx context.Context, accessToken string, days int) ([]domain.Transaction, error)
}

// QuotePool fetches market snapshots for a batch of symbols, degrading
// per-symbol instead of failing.
type QuotePool interface {
	FetchAll(ctx context.Context, symbols []string) map[string]domain.Quote
}

// NewsSource provides per-ticker and general market articles.
type NewsSource interface {
	ForTicker(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error)
	Market(ctx context.Context, limit int) ([]domain.NewsItem, error)
}

// Aggregator gathers everything a digest needs from the external providers.
type Aggregator struct {
	bank      TransactionSource
	quotes    QuotePool
	news      NewsSource
	log       *zap.Logger
	watchlist []string
	indices   []string
}

// NewAggregator wires the aggregator to its providers. watchlist and indices
// are deployment configuration.
func NewAggregator(bankSrc TransactionSource, quotes QuotePool, newsSrc NewsSource, log *zap.Logger, watchlist, indices []string) *Aggregator {
	return &Aggregator{
		bank:      bankSrc,
		quotes:    quotes,
		news:      newsSrc,
		log:       log,
		watchlist: watchlist,
		indices:   indices,
	}
}

// BuildSummary computes the user's spend summary over the trailing week.
// A user without a linked account gets an empty summary, not an error, and
// so does any provider failure: a digest without transaction data still
// ships. Only caller cancellation propagates. The stored budget map is
// merged in either way.
func (a *Aggregator) BuildSummary(ctx context.Context, user *domain.User) (domain.Summary, error) {
	empty := func() domain.Summary {
		s := domain.NewSummary(nil)
		s.Budgets = user.Budgets
		return s
	}

	if user.PlaidAccessToken == "" {
		return empty(), nil
	}

	txs, err := a.bank.RecentTransactions(ctx, user.PlaidAccessToken, transactionDays)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Summary{}, err
		}
		if errors.Is(err, bank.ErrInvalidToken) {
			a.log.Warn("stale bank credential, sending empty summary",
				zap.String("user_id", user.ID))
		} else {
			a.log.Warn("transaction fetch failed, sending empty summary",
				zap.String("user_id", user.ID), zap.Error(err))
		}
		return empty(), nil
	}

	s := domain.NewSummary(txs)
	s.Budgets = user.Budgets
	return s, nil
}

// BuildMarketContext fetches watch-list quotes, index quotes and news.
// Everything is best effort: a failed ticker keeps its error marker, failed
// news sections come back empty. It never returns an error.
func (a *Aggregator) BuildMarketContext(ctx context.Context) domain.MarketContext {
	mctx := domain.MarketContext{
		Quotes:     make(map[string]domain.Quote, len(a.watchlist)),
		Indices:    make(map[string]domain.Quote, len(a.indices)),
		TickerNews: make(map[string][]domain.NewsItem, len(a.watchlist)),
	}

	// One batch so the pool's spacing covers watch-list and index calls alike.
	symbols := make([]string, 0, len(a.watchlist)+len(a.indices))
	symbols = append(symbols, a.watchlist...)
	symbols = append(symbols, a.indices...)

	fetched := a.quotes.FetchAll(ctx, symbols)
	for _, symbol := range a.watchlist {
		mctx.Quotes[symbol] = fetched[symbol]
	}
	for _, symbol := range a.indices {
		name := indexNames[symbol]
		if name == "" {
			name = symbol
		}
		mctx.Indices[name] = fetched[symbol]
	}

	for _, symbol := range a.watchlist {
		items, err := a.news.ForTicker(ctx, symbol, tickerNewsLimit)
		if err != nil {
			a.log.Warn("ticker news fetch failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if len(items) > 0 {
			mctx.TickerNews[symbol] = items
		}
	}

	marketNews, err := a.news.Market(ctx, marketNewsLimit)
	if err != nil {
		a.log.Warn("market news fetch failed", zap.Error(err))
	} else {
		mctx.MarketNews = marketNews
	}

	return mctx
}
