package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/bank"
	"github.com/finnai/digest-bot/internal/config"
	"github.com/finnai/digest-bot/internal/digest"
	"github.com/finnai/digest-bot/internal/market"
	"github.com/finnai/digest-bot/internal/narrative"
	"github.com/finnai/digest-bot/internal/news"
	"github.com/finnai/digest-bot/internal/scheduler"
	"github.com/finnai/digest-bot/internal/store"
	"github.com/finnai/digest-bot/internal/telegram"
)

// App wires configuration, storage, the provider clients and the scheduler.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	tg      *telegram.Client
	httpSrv *http.Server
	repo    store.Repo
}

// New authenticates the delivery channel and prepares the health endpoint.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	tg, err := telegram.New(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, tg: tg, httpSrv: srv}, nil
}

// Run starts the digest engine and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting digest-bot",
		zap.String("bot", a.tg.BotName()),
		zap.Strings("watchlist", a.cfg.Watchlist),
		zap.String("http", a.cfg.HTTPAddr),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	bankClient := bank.New(a.cfg.PlaidClientID, a.cfg.PlaidSecret, a.cfg.PlaidEnv, a.cfg.HTTPTimeout)
	quotePool := market.NewPool(market.NewClient(a.cfg.HTTPTimeout), a.log, a.cfg.DispatchWorkers, a.cfg.QuoteSpacing)
	newsClient := news.NewClient(a.cfg.NewsAPIKey, a.log, a.cfg.HTTPTimeout)

	var narrator digest.Narrator
	if a.cfg.OpenAIAPIKey != "" {
		narrator = narrative.New(a.cfg.OpenAIAPIKey)
	} else {
		a.log.Warn("openai key not configured, digests will carry no insights")
	}

	agg := digest.NewAggregator(bankClient, quotePool, newsClient, a.log,
		a.cfg.Watchlist, a.cfg.MarketIndices)
	composer := digest.NewComposer(narrator, a.log)

	sched := scheduler.New(repo, agg, composer, a.tg, a.log,
		a.cfg.TickSpec, a.cfg.DispatchWorkers, a.cfg.UserTimeout)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sched.Run(ctx)

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if shErr := a.httpSrv.Shutdown(shCtx); shErr != nil {
		a.log.Warn("http server shutdown error", zap.Error(shErr))
	}
	cancel()

	if a.repo != nil {
		_ = a.repo.Close()
	}
	a.log.Info("digest-bot stopped")
	return err
}
