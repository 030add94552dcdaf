package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/digest.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz

	// Plaid (bank data provider)
	PlaidClientID string `envconfig:"PLAID_CLIENT_ID"`
	PlaidSecret   string `envconfig:"PLAID_SECRET"`
	PlaidEnv      string `envconfig:"PLAID_ENV" default:"sandbox"` // sandbox|development|production

	// Optional providers; an empty key degrades the feature, never crashes.
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	NewsAPIKey   string `envconfig:"NEWS_API_KEY"`

	// Market data scope. The watch-list is a deployment-level setting for
	// now; per-user ticker preferences would come from a separate source.
	Watchlist     []string `envconfig:"WATCHLIST" default:"AAPL,MSFT,NFLX,META"`
	MarketIndices []string `envconfig:"MARKET_INDICES" default:"^GSPC,^DJI,^IXIC"`

	// Scheduling and dispatch.
	TickSpec        string        `envconfig:"TICK_SPEC" default:"* * * * *"`
	DispatchWorkers int           `envconfig:"DISPATCH_WORKERS" default:"4"`
	QuoteSpacing    time.Duration `envconfig:"QUOTE_SPACING" default:"500ms"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	UserTimeout     time.Duration `envconfig:"USER_TIMEOUT" default:"90s"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
