// Package scheduler drives the per-minute digest sweep.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/finnai/digest-bot/internal/domain"
)

// Directory lists the users opted into digests.
type Directory interface {
	ListEligible(ctx context.Context) ([]domain.User, error)
}

// Aggregator gathers the data one digest needs.
type Aggregator interface {
	BuildSummary(ctx context.Context, user *domain.User) (domain.Summary, error)
	BuildMarketContext(ctx context.Context) domain.MarketContext
}

// Composer renders the digest message.
type Composer interface {
	Compose(ctx context.Context, user *domain.User, summary domain.Summary, mctx domain.MarketContext) domain.Digest
}

// Sender delivers a message to a chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// Scheduler evaluates all eligible users once per tick and dispatches
// matched users to a bounded worker pool. Passes are strictly sequential
// (a running pass makes the next tick skip), while dispatched per-user work
// may still be finishing in the background when the next pass starts.
type Scheduler struct {
	dir      Directory
	agg      Aggregator
	composer Composer
	sender   Sender
	log      *zap.Logger

	spec        string
	workers     int
	userTimeout time.Duration
	now         func() time.Time

	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	user   domain.User
	passID string
	mctx   domain.MarketContext
}

// Option tweaks a Scheduler; used by tests to pin the clock.
type Option func(*Scheduler)

// WithNow replaces the reference clock.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New builds a Scheduler. spec is a cron expression (one pass per minute in
// production); workers bounds concurrent per-user dispatches.
func New(dir Directory, agg Aggregator, composer Composer, sender Sender, log *zap.Logger,
	spec string, workers int, userTimeout time.Duration, opts ...Option) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{
		dir:         dir,
		agg:         agg,
		composer:    composer,
		sender:      sender,
		log:         log,
		spec:        spec,
		workers:     workers,
		userTimeout: userTimeout,
		now:         time.Now,
		jobs:        make(chan job, 16*workers),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled. On cancellation no further passes are
// scheduled; queued per-user dispatches drain, in-flight ones finish or are
// cut off by their own timeouts.
func (s *Scheduler) Run(ctx context.Context) error {
	cronLog := cron.PrintfLogger(zap.NewStdLog(s.log))
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	))
	if _, err := c.AddFunc(s.spec, func() { s.runPass(ctx) }); err != nil {
		return err
	}

	// Workers start only once the schedule is accepted; an invalid
	// expression must not leave goroutines parked on the queue.
	s.startWorkers(ctx)
	c.Start()
	s.log.Info("scheduler started", zap.String("spec", s.spec))

	<-ctx.Done()
	s.log.Info("scheduler stopping")

	stopped := c.Stop()
	<-stopped.Done()

	close(s.jobs)
	s.wg.Wait()
	return nil
}

func (s *Scheduler) startWorkers(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for j := range s.jobs {
				s.processUser(ctx, j)
			}
		}()
	}
}

// runPass performs one evaluation sweep: list eligible users, keep those
// whose local trigger time matches the rounded reference instant, and
// enqueue each match. A directory failure aborts only this pass.
func (s *Scheduler) runPass(ctx context.Context) {
	passID := uuid.NewString()
	ref := s.now().UTC()
	log := s.log.With(zap.String("pass_id", passID))

	log.Debug("pass started",
		zap.Time("ref", ref),
		zap.Time("rounded", domain.RoundToMinute(ref)))

	users, err := s.dir.ListEligible(ctx)
	if err != nil {
		log.Error("eligible user fetch failed, aborting pass", zap.Error(err))
		return
	}

	matched := make([]domain.User, 0, len(users))
	for _, u := range users {
		ok, err := domain.MatchesTriggerTime(ref, u.Timezone, u.Settings.DigestTime)
		if err != nil {
			log.Warn("time match skipped",
				zap.String("user_id", u.ID),
				zap.String("tz", u.Timezone),
				zap.Error(err))
			continue
		}
		if ok {
			matched = append(matched, u)
		}
	}

	if len(matched) == 0 {
		log.Debug("no users due", zap.Int("eligible", len(users)))
		return
	}
	log.Info("users due for digest",
		zap.Int("eligible", len(users)),
		zap.Int("matched", len(matched)))

	// Market data is user-independent; fetch once and share across the pass.
	mctx := s.agg.BuildMarketContext(ctx)

	for _, u := range matched {
		select {
		case s.jobs <- job{user: u, passID: passID, mctx: mctx}:
		default:
			// Saturated pool: skipping is acceptable under best-effort
			// delivery, silently losing the digest is not.
			log.Error("dispatch queue full, digest skipped",
				zap.String("user_id", u.ID))
		}
	}
}

// processUser runs one user's digest pipeline. Failures and panics are
// contained here so one user can never poison the rest of the pass.
func (s *Scheduler) processUser(ctx context.Context, j job) {
	u := j.user
	log := s.log.With(
		zap.String("pass_id", j.passID),
		zap.String("user_id", u.ID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("digest pipeline panic", zap.Any("panic", r))
		}
	}()

	if u.ChatID == 0 {
		log.Error("user has no delivery destination")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.userTimeout)
	defer cancel()

	summary, err := s.agg.BuildSummary(ctx, &u)
	if err != nil {
		log.Error("summary build failed", zap.Error(err))
		return
	}

	d := s.composer.Compose(ctx, &u, summary, j.mctx)

	if err := s.sender.Send(u.ChatID, d.Text); err != nil {
		log.Error("digest delivery failed", zap.Error(err))
		return
	}
	log.Info("digest delivered", zap.Strings("sections", d.Sections))
}
