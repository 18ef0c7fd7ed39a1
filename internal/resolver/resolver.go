package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nrw/internal/logging"
	"nrw/internal/scores"
	"nrw/internal/services"
)

// Unresolved reasons.
const (
	ReasonNoScore    = "no_provider_score"
	ReasonCachedMiss = "cached_miss"
	ReasonCancelled  = "cancelled"
)

// Options is copied into every run; the resolver keeps no package state.
type Options struct {
	// Force re-resolves movies that already carry a score.
	Force bool
	// Limit caps eligible movies attempted per run. Zero means no cap.
	Limit int
	// Workers bounds concurrent movie resolutions. Values below one mean one.
	Workers int
	// CacheNegativeResults stores a miss when every provider answered
	// not-found, so the title is not queried again.
	CacheNegativeResults bool
}

// Cache is the durable result store.
type Cache interface {
	Get(key string) (scores.Result, bool)
	Put(key string, result scores.Result) error
}

// Limiter spaces calls per provider channel.
type Limiter interface {
	Wait(ctx context.Context, channel string) error
}

// Policy decides whether a movie should be attempted.
type Policy interface {
	Eligible(m scores.Movie) (bool, string)
}

// Observer receives per-call and per-movie events, typically for metrics.
type Observer interface {
	ObserveProvider(provider string, err error, elapsed time.Duration)
	ObserveOutcome(o scores.Outcome)
}

// Dependencies are the collaborators a Resolver drives.
type Dependencies struct {
	Providers []scores.Provider
	Cache     Cache
	Limiter   Limiter
	Policy    Policy
	Observer  Observer
	Logger    *slog.Logger
	Now       func() time.Time
}

// Resolver walks the provider chain for one movie at a time.
type Resolver struct {
	opts   Options
	deps   Dependencies
	logger *slog.Logger
	flight singleflight.Group

	mu       sync.Mutex
	disabled map[string]error
}

// New validates dependencies and builds a resolver.
func New(opts Options, deps Dependencies) (*Resolver, error) {
	if len(deps.Providers) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "no providers configured", nil)
	}
	if deps.Cache == nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "cache is required", nil)
	}
	if deps.Limiter == nil {
		deps.Limiter = noopLimiter{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Resolver{
		opts:     opts,
		deps:     deps,
		logger:   logging.NewComponentLogger(deps.Logger, "resolver"),
		disabled: make(map[string]error),
	}, nil
}

// ResolveOne produces the decision for a single movie. The returned error is
// non-nil only for persistence failures; provider trouble is recorded on the
// outcome.
func (r *Resolver) ResolveOne(ctx context.Context, m scores.Movie) (scores.Outcome, error) {
	if r.deps.Policy != nil {
		if ok, reason := r.deps.Policy.Eligible(m); !ok {
			outcome := skipped(m, reason)
			r.observe(outcome)
			return outcome, nil
		}
	}
	return r.resolveEligible(ctx, m)
}

// ResolveTitle runs the cache and provider chain for an ad hoc title,
// bypassing the staleness policy.
func (r *Resolver) ResolveTitle(ctx context.Context, title, year string) (scores.Outcome, error) {
	return r.resolveEligible(ctx, scores.Movie{Title: title, Year: year})
}

func (r *Resolver) resolveEligible(ctx context.Context, m scores.Movie) (scores.Outcome, error) {
	ctx = services.WithMovieID(ctx, m.ID)
	key := m.Key()

	if outcome, ok := r.fromCache(m, key); ok {
		r.observe(outcome)
		return outcome, nil
	}

	v, err, _ := r.flight.Do(key, func() (any, error) {
		// Another worker may have filled the key while we waited.
		if outcome, ok := r.fromCache(m, key); ok {
			return outcome, nil
		}
		return r.walkChain(ctx, m, key)
	})
	outcome, _ := v.(scores.Outcome)
	outcome = forMovie(outcome, m, key)
	if err != nil {
		return outcome, err
	}
	r.observe(outcome)
	return outcome, nil
}

func (r *Resolver) fromCache(m scores.Movie, key string) (scores.Outcome, bool) {
	cached, ok := r.deps.Cache.Get(key)
	if !ok {
		return scores.Outcome{}, false
	}
	outcome := base(m, key)
	outcome.FromCache = true
	outcome.Result = cached
	if cached.HasCritic() {
		outcome.Status = scores.StatusResolved
	} else {
		outcome.Status = scores.StatusUnresolved
		outcome.Reason = ReasonCachedMiss
	}
	r.logger.Debug("cache hit",
		logging.String(logging.FieldMovieID, m.ID),
		logging.String(logging.FieldCacheKey, key),
		logging.String("status", string(outcome.Status)))
	return outcome, true
}

func (r *Resolver) walkChain(ctx context.Context, m scores.Movie, key string) (scores.Outcome, error) {
	outcome := base(m, key)
	outcome.Status = scores.StatusUnresolved
	outcome.Reason = ReasonNoScore

	for _, provider := range r.deps.Providers {
		name := provider.Name()
		if r.isDisabled(name) {
			continue
		}
		if err := r.deps.Limiter.Wait(ctx, name); err != nil {
			outcome.Reason = ReasonCancelled
			return outcome, nil
		}

		pctx := services.WithProvider(ctx, name)
		logger := logging.WithContext(pctx, r.logger)
		started := r.deps.Now()
		result := provider.Resolve(pctx, m.Title, m.Year).Sanitized()
		elapsed := r.deps.Now().Sub(started)
		result.Method = name
		if result.Source == "" {
			result.Source = name
		}
		if result.Err == nil && !result.HasCritic() {
			result.Err = scores.ErrNotFound
		}
		attempt := scores.Attempt{Provider: name, Duration: elapsed, Critic: result.CriticScore}
		if !result.HasCritic() {
			attempt.Err = result.Err
		}
		outcome.Attempts = append(outcome.Attempts, attempt)
		if r.deps.Observer != nil {
			r.deps.Observer.ObserveProvider(name, attempt.Err, elapsed)
		}

		if result.HasCritic() {
			result.Err = nil
			result.Error = ""
			if err := r.deps.Cache.Put(key, result); err != nil {
				return outcome, services.Wrap(services.ErrPersistence, "resolver", "cache put", key, err)
			}
			outcome.Status = scores.StatusResolved
			outcome.Reason = ""
			outcome.Result = result
			logger.Info("score resolved", logging.Decision("provider_chain", "resolved", name,
				logging.String(logging.FieldCacheKey, key),
				logging.Score("critic_score", result.CriticScore),
				logging.Score("audience_score", result.AudienceScore))...)
			return outcome, nil
		}

		switch {
		case scores.IsAuth(result.Err):
			r.disable(name, result.Err)
			logging.WarnWithContext(logger, "provider rejected credentials; disabled for this run", "provider_disabled",
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, "check the provider api_key in config or environment"),
				logging.String(logging.FieldImpact, "remaining movies skip this provider"))
		case scores.IsNotFound(result.Err):
			logger.Debug("provider has no score", logging.String("detail", result.Error))
		default:
			logging.WarnWithContext(logger, "provider call failed; trying next provider", "provider_failed",
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, "transient failures are retried on the next run"),
				logging.String(logging.FieldImpact, "movie may stay unresolved this run"))
		}
		if ctx.Err() != nil {
			outcome.Reason = ReasonCancelled
			return outcome, nil
		}
	}

	// A miss is only cached once every configured provider has answered
	// not-found; a provider disabled mid-run never got to answer.
	if r.opts.CacheNegativeResults && len(outcome.Attempts) == len(r.deps.Providers) && allNotFound(outcome.Attempts) {
		miss := scores.Result{Source: "none", Error: scores.ErrNotFound.Error()}
		if err := r.deps.Cache.Put(key, miss); err != nil {
			return outcome, services.Wrap(services.ErrPersistence, "resolver", "cache put", key, err)
		}
	}
	r.logger.Info("score unresolved", logging.Decision("provider_chain", "unresolved", outcome.Reason,
		logging.String(logging.FieldMovieID, m.ID),
		logging.String(logging.FieldCacheKey, key),
		logging.Int("attempts", len(outcome.Attempts)))...)
	return outcome, nil
}

// DisabledProviders returns providers turned off by auth failures.
func (r *Resolver) DisabledProviders() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]error, len(r.disabled))
	for k, v := range r.disabled {
		out[k] = v
	}
	return out
}

func (r *Resolver) isDisabled(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.disabled[name]
	return ok
}

func (r *Resolver) disable(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.disabled[name]; !ok {
		r.disabled[name] = err
	}
}

func (r *Resolver) observe(o scores.Outcome) {
	if r.deps.Observer != nil {
		r.deps.Observer.ObserveOutcome(o)
	}
}

func allNotFound(attempts []scores.Attempt) bool {
	if len(attempts) == 0 {
		return false
	}
	for _, a := range attempts {
		if !errors.Is(a.Err, scores.ErrNotFound) {
			return false
		}
	}
	return true
}

func base(m scores.Movie, key string) scores.Outcome {
	return scores.Outcome{Index: m.Index, MovieID: m.ID, Title: m.Title, Year: m.Year, Key: key}
}

func skipped(m scores.Movie, reason string) scores.Outcome {
	o := base(m, m.Key())
	o.Status = scores.StatusSkipped
	o.Reason = reason
	return o
}

// forMovie rebinds a possibly shared outcome to the requesting movie.
func forMovie(o scores.Outcome, m scores.Movie, key string) scores.Outcome {
	o.Index = m.Index
	o.MovieID = m.ID
	o.Title = m.Title
	o.Year = m.Year
	o.Key = key
	o.Result = o.Result.Clone()
	o.Attempts = append([]scores.Attempt(nil), o.Attempts...)
	if o.Status == "" {
		o.Status = scores.StatusUnresolved
		o.Reason = ReasonNoScore
	}
	return o
}

type noopLimiter struct{}

func (noopLimiter) Wait(ctx context.Context, _ string) error { return ctx.Err() }

func (o Options) String() string {
	return fmt.Sprintf("force=%t limit=%d workers=%d cache_negative=%t", o.Force, o.Limit, o.Workers, o.CacheNegativeResults)
}
