package digest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/bank"
	"github.com/finnai/digest-bot/internal/domain"
)

type bankStub struct {
	txs []domain.Transaction
	err error
}

func (s *bankStub) RecentTransactions(_ context.Context, _ string, _ int) ([]domain.Transaction, error) {
	return s.txs, s.err
}

type poolStub struct {
	quotes map[string]domain.Quote
}

func (s *poolStub) FetchAll(_ context.Context, symbols []string) map[string]domain.Quote {
	out := make(map[string]domain.Quote, len(symbols))
	for _, symbol := range symbols {
		if q, ok := s.quotes[symbol]; ok {
			out[symbol] = q
		} else {
			out[symbol] = domain.Quote{Symbol: symbol, Err: "no data"}
		}
	}
	return out
}

type newsStub struct {
	ticker map[string][]domain.NewsItem
	market []domain.NewsItem
	err    error
}

func (s *newsStub) ForTicker(_ context.Context, symbol string, _ int) ([]domain.NewsItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ticker[symbol], nil
}

func (s *newsStub) Market(_ context.Context, _ int) ([]domain.NewsItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.market, nil
}

func newTestAggregator(b *bankStub, p *poolStub, n *newsStub) *Aggregator {
	return NewAggregator(b, p, n, zap.NewNop(),
		[]string{"AAPL", "MSFT", "NFLX", "META"}, []string{"^GSPC", "^DJI"})
}

func TestBuildSummary_NoLinkedAccount(t *testing.T) {
	agg := newTestAggregator(&bankStub{err: errors.New("must not be called")}, &poolStub{}, &newsStub{})

	user := &domain.User{ID: "u-1", Budgets: map[string]decimal.Decimal{"food": amt("200")}}
	s, err := agg.BuildSummary(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, 0, s.TotalCount)
	assert.True(t, s.TotalSpent.IsZero())
	assert.True(t, s.Budgets["food"].Equal(amt("200")), "budgets merged even without data")
}

func TestBuildSummary_MergesBudgets(t *testing.T) {
	b := &bankStub{txs: []domain.Transaction{
		{ID: "1", Name: "Coffee", Amount: amt("4.50"), Categories: []string{"Food"}},
	}}
	agg := newTestAggregator(b, &poolStub{}, &newsStub{})

	user := &domain.User{
		ID:               "u-1",
		PlaidAccessToken: "token",
		Budgets:          map[string]decimal.Decimal{"Food": amt("120")},
	}
	s, err := agg.BuildSummary(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, 1, s.TotalCount)
	assert.True(t, s.TotalSpent.Equal(amt("4.50")))
	assert.True(t, s.Budgets["Food"].Equal(amt("120")))
}

func TestBuildSummary_InvalidTokenDegradesToEmpty(t *testing.T) {
	b := &bankStub{err: bank.ErrInvalidToken}
	agg := newTestAggregator(b, &poolStub{}, &newsStub{})

	user := &domain.User{ID: "u-1", PlaidAccessToken: "stale"}
	s, err := agg.BuildSummary(context.Background(), user)
	require.NoError(t, err, "stale credential is a no-data outcome, not a failure")
	assert.Equal(t, 0, s.TotalCount)
}

func TestBuildSummary_TransientErrorDegradesToEmpty(t *testing.T) {
	b := &bankStub{err: errors.New("connection reset by peer")}
	agg := newTestAggregator(b, &poolStub{}, &newsStub{})

	user := &domain.User{
		ID:               "u-1",
		PlaidAccessToken: "token",
		Budgets:          map[string]decimal.Decimal{"Food": amt("120")},
	}
	s, err := agg.BuildSummary(context.Background(), user)
	require.NoError(t, err, "a bank outage degrades the section, the digest still ships")
	assert.Equal(t, 0, s.TotalCount)
	assert.True(t, s.Budgets["Food"].Equal(amt("120")), "budgets merged despite the outage")
}

func TestBuildSummary_CancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &bankStub{err: context.Canceled}
	agg := newTestAggregator(b, &poolStub{}, &newsStub{})

	_, err := agg.BuildSummary(ctx, &domain.User{ID: "u-1", PlaidAccessToken: "token"})
	assert.Error(t, err, "cancellation aborts instead of sending a misleading empty digest")
}

func TestBuildMarketContext_DegradesPerTicker(t *testing.T) {
	p := &poolStub{quotes: map[string]domain.Quote{
		"AAPL":  {Symbol: "AAPL", Price: 210},
		"MSFT":  {Symbol: "MSFT", Price: 420},
		"META":  {Symbol: "META", Price: 510},
		"^GSPC": {Symbol: "^GSPC", Price: 5630},
		"^DJI":  {Symbol: "^DJI", Price: 41000},
	}}
	n := &newsStub{
		ticker: map[string][]domain.NewsItem{"AAPL": {{Title: "Apple news"}}},
		market: []domain.NewsItem{{Title: "Fed holds rates"}},
	}
	agg := newTestAggregator(&bankStub{}, p, n)

	mctx := agg.BuildMarketContext(context.Background())

	require.Len(t, mctx.Quotes, 4)
	assert.True(t, mctx.Quotes["AAPL"].OK())
	assert.False(t, mctx.Quotes["NFLX"].OK(), "missing ticker keeps an error marker")

	assert.True(t, mctx.Indices["S&P 500"].OK(), "index symbols map to display names")
	assert.True(t, mctx.Indices["Dow Jones"].OK())

	assert.Len(t, mctx.TickerNews["AAPL"], 1)
	assert.NotContains(t, mctx.TickerNews, "MSFT", "empty news lists are omitted")
	assert.Len(t, mctx.MarketNews, 1)
}

func TestBuildMarketContext_NewsFailureIsNonFatal(t *testing.T) {
	agg := newTestAggregator(&bankStub{}, &poolStub{}, &newsStub{err: errors.New("newsapi down")})

	mctx := agg.BuildMarketContext(context.Background())

	assert.Len(t, mctx.Quotes, 4, "quotes survive a news outage")
	assert.Empty(t, mctx.TickerNews)
	assert.Empty(t, mctx.MarketNews)
}
