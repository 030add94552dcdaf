package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/domain"
)

// Quoter is the single-symbol fetch the pool fans out over.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (domain.Quote, error)
}

// Pool fetches many symbols with bounded concurrency while keeping a
// minimum spacing between calls to the provider. The spacing gate is shared
// across workers, so total call rate stays under the provider's limit no
// matter how many workers run.
type Pool struct {
	quoter  Quoter
	log     *zap.Logger
	workers int
	spacing time.Duration
}

// NewPool builds a quote pool. workers < 1 becomes 1; spacing < 0 becomes 0.
func NewPool(quoter Quoter, log *zap.Logger, workers int, spacing time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	if spacing < 0 {
		spacing = 0
	}
	return &Pool{quoter: quoter, log: log, workers: workers, spacing: spacing}
}

// FetchAll returns a snapshot per symbol. A failed symbol yields a Quote
// with Err set; FetchAll itself never fails.
func (p *Pool) FetchAll(ctx context.Context, symbols []string) map[string]domain.Quote {
	out := make(map[string]domain.Quote, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	// One token per allowed call, refilled at the spacing interval. done
	// stops the refiller when this batch finishes, ctx may outlive it.
	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	if p.spacing > 0 {
		ticker := time.NewTicker(p.spacing)
		defer ticker.Stop()
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case <-done:
					return
				case <-ctx.Done():
					return
				case <-ticker.C:
					select {
					case gate <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				q := p.fetchOne(ctx, gate, symbol)
				mu.Lock()
				out[symbol] = q
				mu.Unlock()
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()

	return out
}

func (p *Pool) fetchOne(ctx context.Context, gate <-chan struct{}, symbol string) domain.Quote {
	if err := ctx.Err(); err != nil {
		return domain.Quote{Symbol: symbol, Err: err.Error()}
	}
	if p.spacing > 0 {
		select {
		case <-ctx.Done():
			return domain.Quote{Symbol: symbol, Err: ctx.Err().Error()}
		case <-gate:
		}
	}

	q, err := p.quoter.Quote(ctx, symbol)
	if err != nil {
		p.log.Warn("quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return domain.Quote{Symbol: symbol, Err: err.Error()}
	}
	return q
}
