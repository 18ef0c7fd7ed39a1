package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"nrw/internal/logging"
	"nrw/internal/scores"
)

// Report summarizes one batch. Outcomes are in input order.
type Report struct {
	Outcomes   []scores.Outcome
	Resolved   int
	Skipped    int
	Unresolved int
	Failed     int
	CacheHits  int
	Duration   time.Duration
}

// Run resolves every movie. Eligibility and the per-run limit are decided up
// front in input order; eligible movies are then resolved by a bounded pool
// of workers. A persistence failure stops the batch and is returned together
// with the partial report. Cancellation marks unfinished movies unresolved
// and returns the context error.
func (r *Resolver) Run(ctx context.Context, movies []scores.Movie) (Report, error) {
	started := r.deps.Now()
	outcomes := make([]scores.Outcome, len(movies))
	done := make([]bool, len(movies))

	var pending []int
	for i, m := range movies {
		if r.deps.Policy != nil {
			if ok, reason := r.deps.Policy.Eligible(m); !ok {
				outcomes[i] = skipped(m, reason)
				done[i] = true
				r.observe(outcomes[i])
				continue
			}
		}
		if r.opts.Limit > 0 && len(pending) >= r.opts.Limit {
			outcomes[i] = skipped(m, scores.SkipLimit)
			done[i] = true
			r.observe(outcomes[i])
			continue
		}
		pending = append(pending, i)
	}

	r.logger.Info("resolver run started",
		logging.String(logging.FieldEventType, "resolver_run_started"),
		logging.Int("movies", len(movies)),
		logging.Int("eligible", len(pending)),
		logging.String("options", r.opts.String()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, idx := range pending {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := r.resolveEligible(gctx, movies[idx])
			if err != nil {
				return err
			}
			outcomes[idx] = outcome
			done[idx] = true
			return nil
		})
	}
	err := g.Wait()

	for i, m := range movies {
		if !done[i] {
			o := base(m, m.Key())
			o.Status = scores.StatusUnresolved
			o.Reason = ReasonCancelled
			outcomes[i] = o
		}
	}

	report := summarize(outcomes)
	report.Duration = r.deps.Now().Sub(started)
	if err == nil {
		err = ctx.Err()
	}

	r.logger.Info("resolver run finished",
		logging.String(logging.FieldEventType, "resolver_run_finished"),
		logging.Int("resolved", report.Resolved),
		logging.Int("skipped", report.Skipped),
		logging.Int("unresolved", report.Unresolved),
		logging.Int("failed", report.Failed),
		logging.Int("cache_hits", report.CacheHits),
		logging.Duration("duration", report.Duration))
	return report, err
}

func summarize(outcomes []scores.Outcome) Report {
	report := Report{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case scores.StatusResolved:
			report.Resolved++
		case scores.StatusSkipped:
			report.Skipped++
		case scores.StatusUnresolved:
			report.Unresolved++
			if o.Failed() {
				report.Failed++
			}
		}
		if o.FromCache {
			report.CacheHits++
		}
	}
	return report
}

// ResolvedOutcomes returns only the resolved outcomes.
func (rep Report) ResolvedOutcomes() []scores.Outcome {
	out := make([]scores.Outcome, 0, rep.Resolved)
	for _, o := range rep.Outcomes {
		if o.Status == scores.StatusResolved {
			out = append(out, o)
		}
	}
	return out
}
