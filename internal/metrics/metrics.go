// Package metrics records triage counters on a private Prometheus registry.
//
// A nil *Recorder is valid and records nothing, so callers never need to
// guard their instrumentation.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "verdict"

// Recorder owns the triage metrics.
type Recorder struct {
	registry *prometheus.Registry

	analyzed     *prometheus.CounterVec
	filtered     prometheus.Counter
	cacheLookups *prometheus.CounterVec
	errors       *prometheus.CounterVec
	duration     prometheus.Histogram
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_analyzed_total",
			Help:      "Findings that received a model verdict.",
		}, []string{"provider"}),
		filtered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_filtered_total",
			Help:      "Findings removed as confident false positives.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Verdict cache lookups by result.",
		}, []string{"result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_errors_total",
			Help:      "Per-finding analysis failures by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of model provider calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
	}
	r.registry.MustRegister(r.analyzed, r.filtered, r.cacheLookups, r.errors, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Analyzed(provider string) {
	if r == nil {
		return
	}
	r.analyzed.WithLabelValues(provider).Inc()
}

func (r *Recorder) Filtered() {
	if r == nil {
		return
	}
	r.filtered.Inc()
}

func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) AnalysisError(kind string) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(kind).Inc()
}

func (r *Recorder) ObserveRequest(d time.Duration) {
	if r == nil {
		return
	}
	r.duration.Observe(d.Seconds())
}

// WriteFile writes the text exposition format to path.
func (r *Recorder) WriteFile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
