package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/domain"
)

type quoterStub struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []time.Time
}

func (s *quoterStub) Quote(_ context.Context, symbol string) (domain.Quote, error) {
	s.mu.Lock()
	s.calls = append(s.calls, time.Now())
	s.mu.Unlock()
	if s.fail[symbol] {
		return domain.Quote{}, errors.New("provider unavailable")
	}
	return domain.Quote{Symbol: symbol, Price: 42}, nil
}

func TestFetchAll_DegradesPerSymbol(t *testing.T) {
	stub := &quoterStub{fail: map[string]bool{"NFLX": true}}
	pool := NewPool(stub, zap.NewNop(), 2, 0)

	out := pool.FetchAll(context.Background(), []string{"AAPL", "MSFT", "NFLX", "META"})
	require.Len(t, out, 4)

	for _, symbol := range []string{"AAPL", "MSFT", "META"} {
		q := out[symbol]
		assert.True(t, q.OK(), "%s should have data", symbol)
		assert.InDelta(t, 42.0, q.Price, 1e-9)
	}

	failed := out["NFLX"]
	assert.False(t, failed.OK())
	assert.Contains(t, failed.Err, "provider unavailable")
}

func TestFetchAll_EmptyWatchlist(t *testing.T) {
	pool := NewPool(&quoterStub{}, zap.NewNop(), 4, 0)
	out := pool.FetchAll(context.Background(), nil)
	assert.Empty(t, out)
}

func TestFetchAll_SpacingThrottlesCalls(t *testing.T) {
	stub := &quoterStub{}
	pool := NewPool(stub, zap.NewNop(), 4, 40*time.Millisecond)

	start := time.Now()
	out := pool.FetchAll(context.Background(), []string{"A", "B", "C"})
	elapsed := time.Since(start)

	require.Len(t, out, 3)
	// First call is immediate; the remaining two wait for refills.
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}

func TestFetchAll_CancelledContextMarksRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(&quoterStub{}, zap.NewNop(), 2, 10*time.Millisecond)
	out := pool.FetchAll(ctx, []string{"A", "B"})

	require.Len(t, out, 2)
	for _, q := range out {
		assert.False(t, q.OK())
	}
}
