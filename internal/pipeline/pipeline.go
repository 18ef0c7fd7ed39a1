package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"nrw/internal/catalog"
	"nrw/internal/config"
	"nrw/internal/logging"
	"nrw/internal/metrics"
	"nrw/internal/notifications"
	"nrw/internal/providers"
	"nrw/internal/ratelimit"
	"nrw/internal/resolver"
	"nrw/internal/runlog"
	"nrw/internal/scorecache"
	"nrw/internal/scores"
	"nrw/internal/services"
	"nrw/internal/staleness"
)

// Request carries per-invocation overrides. Zero values fall back to config.
type Request struct {
	Force   bool
	DryRun  bool
	Limit   int
	Workers int
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	CatalogPath string
	BackupPath  string
	DryRun      bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Report      resolver.Report
	Changed     []string
	Refused     []string
}

// Pipeline owns the long-lived collaborators of a batch run.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	providers []scores.Provider
	transport http.RoundTripper
	clock     ratelimit.Clock
	now       func() time.Time
	cache     *scorecache.Cache
	writer    *catalog.Writer
	metrics   *metrics.Recorder
	notifier  notifications.Service
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProviders replaces the configured adapter chain.
func WithProviders(chain ...scores.Provider) Option {
	return func(p *Pipeline) { p.providers = chain }
}

// WithTransport sets the base HTTP transport used by configured adapters.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Pipeline) { p.transport = rt }
}

// WithClock drives rate limiting, staleness and timestamps from clock.
func WithClock(clock ratelimit.Clock) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
			p.now = clock.Now
		}
	}
}

// WithWriter overrides the catalog writer, mainly to inject rename failures.
func WithWriter(w *catalog.Writer) Option {
	return func(p *Pipeline) { p.writer = w }
}

// WithCache overrides the score cache.
func WithCache(c *scorecache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithNotifier overrides the run summary notifier.
func WithNotifier(n notifications.Service) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// New wires a pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		clock:   ratelimit.SystemClock{},
		now:     time.Now,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "ensure directories", err)
	}
	if p.providers == nil {
		chain, err := providers.Build(cfg, p.transport, logger)
		if err != nil {
			return nil, err
		}
		p.providers = chain
	}
	if p.cache == nil {
		p.cache = scorecache.Open(cfg.Paths.CachePath, scorecache.WithLogger(logger), scorecache.WithClock(p.now))
	}
	if p.writer == nil {
		p.writer = catalog.NewWriter(cfg.Paths.CatalogPath, logger)
	}
	if p.notifier == nil {
		p.notifier = notifications.NewService(cfg, p.transport)
	}
	return p, nil
}

// Cache exposes the score cache for operator commands.
func (p *Pipeline) Cache() *scorecache.Cache { return p.cache }

// Metrics exposes the recorder.
func (p *Pipeline) Metrics() *metrics.Recorder { return p.metrics }

// Policy returns the staleness policy for req.
func (p *Pipeline) Policy(req Request) staleness.Policy {
	policy := staleness.New(p.cfg.Resolver.MinAgeDays, req.Force)
	policy.Now = p.now
	return policy
}

// Resolver builds a resolver for req over the pipeline's collaborators.
func (p *Pipeline) Resolver(req Request) (*resolver.Resolver, error) {
	opts := resolver.Options{
		Force:                req.Force,
		Limit:                p.cfg.Resolver.Limit,
		Workers:              p.cfg.Resolver.Workers,
		CacheNegativeResults: p.cfg.Resolver.CacheNegativeResults,
	}
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	return resolver.New(opts, resolver.Dependencies{
		Providers: p.providers,
		Cache:     p.cache,
		Limiter:   ratelimit.New(p.cfg.RateLimitInterval(), p.clock),
		Policy:    p.Policy(req),
		Observer:  p.metrics,
		Logger:    p.logger,
		Now:       p.now,
	})
}

// Run executes one batch. Cancellation still commits what was resolved
// before the context ended and records the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	summary := Summary{
		RunID:       runID,
		CatalogPath: p.writer.Path,
		BackupPath:  p.writer.BackupPath,
		DryRun:      req.DryRun,
		StartedAt:   p.now(),
	}

	lock := flock.New(p.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return summary, services.Wrap(services.ErrPersistence, "pipeline", "lock", p.cfg.LockPath(), err)
	}
	if !ok {
		return summary, services.Wrap(services.ErrLocked, "pipeline", "lock",
			fmt.Sprintf("another nrw run holds %s", p.cfg.LockPath()), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	logging.PruneArchives(logger, filepath.Join(p.cfg.Paths.LogDir, logging.LogFileName),
		p.cfg.Logging.RetentionDays, p.now())

	doc, err := catalog.Load(p.writer.Path)
	if err != nil {
		return summary, err
	}
	movies := make([]scores.Movie, 0, doc.Len())
	for _, m := range doc.Movies() {
		movies = append(movies, m.Subject())
	}
	logger.Info("catalog loaded",
		logging.String(logging.FieldEventType, "catalog_loaded"),
		logging.String("path", p.writer.Path),
		logging.String("shape", doc.Shape().String()),
		logging.Int("movies", len(movies)))

	res, err := p.Resolver(req)
	if err != nil {
		return summary, err
	}
	report, runErr := res.Run(ctx, movies)
	summary.Report = report
	if runErr != nil && !isCancellation(runErr) {
		summary.FinishedAt = p.now()
		p.record(ctx, summary, runErr)
		p.notify(ctx, logger, notifications.EventRunFailed, summary, runErr)
		return summary, runErr
	}

	var applied catalog.ApplyResult
	if req.DryRun {
		applied, err = catalog.Apply(doc, report.Outcomes, req.Force)
		if err != nil {
			err = services.Wrap(services.ErrPersistence, "catalog", "apply", p.writer.Path, err)
		}
	} else {
		applied, err = p.writer.Commit(doc, report.Outcomes, req.Force)
	}
	summary.Changed = applied.Changed
	summary.Refused = applied.Skipped
	summary.FinishedAt = p.now()
	if err != nil {
		logging.ErrorWithContext(logger, "catalog not written", "catalog_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions next to the catalog"),
			logging.String(logging.FieldImpact, "resolved scores stay in the cache and are applied on the next run"))
		p.record(ctx, summary, err)
		p.notify(ctx, logger, notifications.EventRunFailed, summary, err)
		return summary, err
	}

	if err := p.record(ctx, summary, runErr); err != nil {
		p.notify(ctx, logger, notifications.EventRunFailed, summary, err)
		return summary, err
	}
	p.metrics.ObserveCommit(len(summary.Changed), summary.FinishedAt)
	if err := p.metrics.WriteTextfile(p.cfg.Metrics.TextfilePath); err != nil {
		logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.textfile_path"),
			logging.String(logging.FieldImpact, "metrics for this run are unavailable"))
	}

	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Int("changed", len(summary.Changed)),
		logging.Bool("dry_run", req.DryRun),
		logging.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)))
	p.notify(ctx, logger, notifications.EventRunCompleted, summary, runErr)
	return summary, runErr
}

// notify publishes a run notification. Delivery failures only warn.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, s Summary, runErr error) {
	err := p.notifier.Publish(context.WithoutCancel(ctx), event, notifications.RunSummary{
		RunID:      s.RunID,
		Resolved:   s.Report.Resolved,
		Unresolved: s.Report.Unresolved,
		Failed:     s.Report.Failed,
		Changed:    len(s.Changed),
		DryRun:     s.DryRun,
		Duration:   s.FinishedAt.Sub(s.StartedAt),
		Err:        runErr,
	})
	if err != nil {
		logging.WarnWithContext(logger, "run notification not delivered", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification for this run"))
	}
}

// record stores the run history. Failures are persistence errors.
func (p *Pipeline) record(ctx context.Context, s Summary, runErr error) error {
	ctx = context.WithoutCancel(ctx)
	store, err := runlog.Open(p.cfg.RunLogPath())
	if err != nil {
		return services.Wrap(services.ErrPersistence, "runlog", "open", p.cfg.RunLogPath(), err)
	}
	defer store.Close()

	run := runlog.Run{
		ID:          s.RunID,
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
		CatalogPath: s.CatalogPath,
		Resolved:    s.Report.Resolved,
		Skipped:     s.Report.Skipped,
		Unresolved:  s.Report.Unresolved,
		Failed:      s.Report.Failed,
		CacheHits:   s.Report.CacheHits,
		Changed:     len(s.Changed),
		DryRun:      s.DryRun,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	rows := make([]runlog.OutcomeRow, 0, len(s.Report.Outcomes))
	for _, o := range s.Report.Outcomes {
		rows = append(rows, runlog.RowFromOutcome(o))
	}
	if err := store.RecordRun(ctx, run, rows); err != nil {
		return services.Wrap(services.ErrPersistence, "runlog", "record", s.RunID, err)
	}
	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
