// Package metrics records run metrics for the document sync and exports them
// in the Prometheus text format for a node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skills_radar"

// Fetch outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// Recorder holds the metrics of one run. A nil *Recorder is valid and
// records nothing, so components can be used without metrics.
type Recorder struct {
	registry *prometheus.Registry

	fileFetches    *prometheus.CounterVec
	locateResults  *prometheus.CounterVec
	redirects      prometheus.Counter
	rateLimits     *prometheus.CounterVec
	syncOutcomes   *prometheus.CounterVec
	locateDuration prometheus.Histogram
	feedEvents     *prometheus.CounterVec
	lastRun        prometheus.Gauge
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)
	return &Recorder{
		registry: reg,
		fileFetches: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "file_fetches_total",
			Help:      "Remote file fetches by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		locateResults: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "locate_results_total",
			Help:      "Skill discovery results by the phase that produced them.",
		}, []string{"phase"}),
		redirects: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "repository_redirects_total",
			Help:      "Repositories resolved to a different canonical name.",
		}),
		rateLimits: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "rate_limits_total",
			Help:      "Rate limits reported by GitHub, by kind (primary or secondary).",
		}, []string{"kind"}),
		syncOutcomes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "documents_total",
			Help:      "Sync results per skill.",
		}, []string{"outcome"}),
		locateDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent locating and fetching one skill document.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		feedEvents: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_total",
			Help:      "Published feed events by kind.",
		}, []string{"kind"}),
		lastRun: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}
}

// FileFetch records one remote file fetch.
func (r *Recorder) FileFetch(strategy, outcome string) {
	if r == nil {
		return
	}
	r.fileFetches.WithLabelValues(strategy, outcome).Inc()
}

// LocateResult records which discovery phase answered a lookup.
func (r *Recorder) LocateResult(phase string) {
	if r == nil {
		return
	}
	r.locateResults.WithLabelValues(phase).Inc()
}

// Redirect records a repository redirect.
func (r *Recorder) Redirect() {
	if r == nil {
		return
	}
	r.redirects.Inc()
}

// RateLimit records a rate limit reported by GitHub.
func (r *Recorder) RateLimit(kind string) {
	if r == nil {
		return
	}
	r.rateLimits.WithLabelValues(kind).Inc()
}

// SyncOutcome records the result of syncing one skill.
func (r *Recorder) SyncOutcome(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.syncOutcomes.WithLabelValues(outcome).Inc()
	r.locateDuration.Observe(d.Seconds())
}

// FeedEvent records a published feed event.
func (r *Recorder) FeedEvent(kind string) {
	if r == nil {
		return
	}
	r.feedEvents.WithLabelValues(kind).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile stamps the run time and writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	r.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, r.registry)
}
