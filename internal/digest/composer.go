package digest

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/domain"
)

// Narrator turns a structured prompt into a short narrative paragraph.
// A nil Narrator means digests ship without the insights section.
type Narrator interface {
	Narrate(ctx context.Context, user *domain.User, prompt string) (string, error)
}

// Composer renders the aggregated data into a Telegram-HTML message.
// Only inline styling (<b>, <i>) is emitted; Telegram rejects structural
// tags in sendMessage bodies.
type Composer struct {
	narrator Narrator
	log      *zap.Logger
}

// NewComposer builds a composer. narrator may be nil.
func NewComposer(narrator Narrator, log *zap.Logger) *Composer {
	return &Composer{narrator: narrator, log: log}
}

// Compose renders the digest for one user. The deterministic sections depend
// only on the inputs; the narrative is strictly additive and a narrator
// failure never blocks the digest.
func (c *Composer) Compose(ctx context.Context, user *domain.User, summary domain.Summary, mctx domain.MarketContext) domain.Digest {
	name := html.EscapeString(user.DisplayName())

	if summary.TotalCount == 0 {
		return domain.Digest{
			Text:     fmt.Sprintf("Hi %s, you have no transactions in the past week.", name),
			Sections: []string{"empty"},
		}
	}

	var b strings.Builder
	sections := []string{"summary"}

	fmt.Fprintf(&b, "<b>Hi %s, here's your weekly financial summary:</b>\n\n", name)
	fmt.Fprintf(&b, "💰 <b>Total spent:</b> $%s\n", summary.TotalSpent.StringFixed(2))

	if top := summary.TopCategories(3); len(top) > 0 {
		sections = append(sections, "categories")
		b.WriteString("\n📊 <b>Top spending categories:</b>\n")
		for _, ct := range top {
			fmt.Fprintf(&b, "- %s: $%s\n", html.EscapeString(ct.Category), ct.Total.StringFixed(2))
		}
	}

	if lt := summary.Largest; lt != nil {
		sections = append(sections, "largest")
		fmt.Fprintf(&b, "\n🔍 <b>Largest transaction:</b>\n%s ($%s) on %s\n",
			html.EscapeString(lt.Name), lt.Amount.StringFixed(2), lt.Date.Format("2006-01-02"))
	}

	if market := renderMarket(mctx); market != "" {
		sections = append(sections, "markets")
		b.WriteString(market)
	}
	if news := renderNews(mctx); news != "" {
		sections = append(sections, "news")
		b.WriteString(news)
	}

	if c.narrator != nil {
		if insight := c.narrate(ctx, user, summary, mctx); insight != "" {
			sections = append(sections, "insights")
			b.WriteString("\n💡 <b>Insights:</b>\n")
			b.WriteString(insight)
			b.WriteString("\n")
		}
	}

	return domain.Digest{Text: strings.TrimRight(b.String(), "\n"), Sections: sections}
}

func (c *Composer) narrate(ctx context.Context, user *domain.User, summary domain.Summary, mctx domain.MarketContext) string {
	insight, err := c.narrator.Narrate(ctx, user, BuildPrompt(user, summary, mctx))
	if err != nil {
		c.log.Warn("narrative generation failed, sending deterministic digest",
			zap.String("user_id", user.ID), zap.Error(err))
		return ""
	}
	return html.EscapeString(strings.TrimSpace(insight))
}

func renderMarket(mctx domain.MarketContext) string {
	var b strings.Builder

	if len(mctx.Indices) > 0 {
		b.WriteString("\n📈 <b>Markets:</b>\n")
		for _, name := range sortedKeys(mctx.Indices) {
			b.WriteString(quoteLine(name, mctx.Indices[name], false))
		}
	}
	if len(mctx.Quotes) > 0 {
		b.WriteString("\n📊 <b>Watchlist:</b>\n")
		for _, symbol := range sortedKeys(mctx.Quotes) {
			b.WriteString(quoteLine(symbol, mctx.Quotes[symbol], true))
		}
	}
	return b.String()
}

// quoteLine renders one symbol. Errored quotes keep the symbol visible so a
// reader can tell absence of data from absence of the ticker.
func quoteLine(label string, q domain.Quote, withRange bool) string {
	label = html.EscapeString(label)
	if !q.OK() {
		return fmt.Sprintf("- %s: data unavailable\n", label)
	}
	if withRange {
		return fmt.Sprintf("- %s: $%.2f (%+.2f%%), 5d range $%.2f–$%.2f\n",
			label, q.Price, q.ChangePct, q.WeekLow, q.WeekHigh)
	}
	return fmt.Sprintf("- %s: %.2f (%+.2f%%)\n", label, q.Price, q.ChangePct)
}

func renderNews(mctx domain.MarketContext) string {
	var b strings.Builder

	if len(mctx.MarketNews) > 0 {
		b.WriteString("\n📰 <b>Market news:</b>\n")
		for _, item := range mctx.MarketNews {
			b.WriteString(newsLine(item))
		}
	}
	if len(mctx.TickerNews) > 0 {
		for _, symbol := range sortedKeys(mctx.TickerNews) {
			fmt.Fprintf(&b, "\n🗞 <b>%s news:</b>\n", html.EscapeString(symbol))
			for _, item := range mctx.TickerNews[symbol] {
				b.WriteString(newsLine(item))
			}
		}
	}
	return b.String()
}

func newsLine(item domain.NewsItem) string {
	title := html.EscapeString(item.Title)
	if item.Source != "" {
		return fmt.Sprintf("- %s <i>(%s)</i>\n", title, html.EscapeString(item.Source))
	}
	return fmt.Sprintf("- %s\n", title)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
