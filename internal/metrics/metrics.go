// Package metrics records provider and resolution counters on a private
// Prometheus registry. nrw is a batch tool, so metrics are exported as a
// node_exporter textfile at the end of a run instead of being scraped.
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nrw/internal/scores"
)

const namespace = "nrw"

// Result label values for nrw_provider_requests_total.
const (
	ResultSuccess   = "success"
	ResultNotFound  = "not_found"
	ResultAuth      = "auth"
	ResultTransport = "transport"
)

// Recorder holds the metric families for one process.
type Recorder struct {
	registry *prometheus.Registry

	// ProviderRequests counts adapter calls. Labels: provider, result.
	ProviderRequests *prometheus.CounterVec
	// ProviderDuration observes adapter latency. Labels: provider.
	ProviderDuration *prometheus.HistogramVec
	// Resolutions counts per-movie outcomes. Labels: status.
	Resolutions *prometheus.CounterVec
	// RecordsChanged is the number of catalog records rewritten by the last
	// commit.
	RecordsChanged prometheus.Gauge
	// LastRun is the unix time the last run finished.
	LastRun prometheus.Gauge
}

// New registers every metric on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider adapter calls by provider and result.",
		}, []string{"provider", "result"}),
		ProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Provider adapter call latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Per-movie resolution outcomes by status.",
		}, []string{"status"}),
		RecordsChanged: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "records_changed",
			Help:      "Catalog records updated by the last run.",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveProvider records one adapter call.
func (r *Recorder) ObserveProvider(provider string, err error, elapsed time.Duration) {
	r.ProviderRequests.WithLabelValues(provider, ResultLabel(err)).Inc()
	r.ProviderDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveOutcome records one per-movie decision.
func (r *Recorder) ObserveOutcome(o scores.Outcome) {
	r.Resolutions.WithLabelValues(string(o.Status)).Inc()
}

// ObserveCommit records the number of catalog records written.
func (r *Recorder) ObserveCommit(changed int, finished time.Time) {
	r.RecordsChanged.Set(float64(changed))
	r.LastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in text exposition format. The write is
// atomic so a collector never reads a partial file. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ResultLabel maps an adapter error onto the result label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, scores.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, scores.ErrAuth):
		return ResultAuth
	default:
		return ResultTransport
	}
}
