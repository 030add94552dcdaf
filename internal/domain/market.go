package domain

import "time"

// Quote is one symbol's market snapshot: current price, percent change
// versus previous close, and a trailing 5-trading-day window.
type Quote struct {
	Symbol    string
	Price     float64
	ChangePct float64
	WeekHigh  float64
	WeekLow   float64
	AvgVolume int64
	// Err carries the fetch failure for this symbol; other fields are
	// meaningless when set. A failed symbol never fails the digest.
	Err string
}

// OK reports whether the quote carries usable data.
func (q Quote) OK() bool { return q.Err == "" }

// NewsItem is one article from the news provider.
type NewsItem struct {
	Title       string
	Description string
	Content     string
	Source      string
	PublishedAt time.Time
	URL         string
}

// MarketContext bundles everything the digest needs beyond the user's own
// transactions: watch-list quotes, index quotes, and news. Ephemeral.
type MarketContext struct {
	Quotes     map[string]Quote // watch-list ticker -> snapshot
	Indices    map[string]Quote // index display name -> snapshot
	TickerNews map[string][]NewsItem
	MarketNews []NewsItem
}

// Digest is the composed notification message for one user for one matched
// tick, plus the names of the sections it contains.
type Digest struct {
	Text     string
	Sections []string
}
