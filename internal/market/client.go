// Package market fetches quote snapshots from a Yahoo-style chart API.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finnai/digest-bot/internal/domain"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when the provider answers but carries no usable
// series for the symbol. Missing data is absence, not an outage.
var ErrNoData = errors.New("no market data for symbol")

// Client fetches per-symbol quote snapshots. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a quote client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote returns the current snapshot for one symbol: last price, percent
// change against the previous close, and the trailing 5-trading-day
// high/low/average-volume window.
func (c *Client) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Quote{}, err
	}
	req.Header.Set("User-Agent", "digest-bot/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("quote %s: status %d", symbol, resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Quote{}, fmt.Errorf("quote %s: decode: %w", symbol, err)
	}
	if parsed.Chart.Error != nil {
		return domain.Quote{}, fmt.Errorf("quote %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return domain.Quote{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	result := parsed.Chart.Result[0]
	q := domain.Quote{
		Symbol: symbol,
		Price:  result.Meta.RegularMarketPrice,
	}
	if prev := result.Meta.ChartPreviousClose; prev != 0 {
		q.ChangePct = (q.Price - prev) / prev * 100
	}

	if len(result.Indicators.Quote) > 0 {
		series := result.Indicators.Quote[0]
		q.WeekHigh, q.WeekLow = highLow(series.High, series.Low)
		q.AvgVolume = avgVolume(series.Volume)
	}
	return q, nil
}

// highLow scans the daily series, ignoring null entries (market holidays).
func highLow(highs, lows []*float64) (hi, lo float64) {
	for _, h := range highs {
		if h != nil && *h > hi {
			hi = *h
		}
	}
	for _, l := range lows {
		if l == nil {
			continue
		}
		if lo == 0 || *l < lo {
			lo = *l
		}
	}
	return hi, lo
}

func avgVolume(vols []*int64) int64 {
	var sum, n int64
	for _, v := range vols {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
