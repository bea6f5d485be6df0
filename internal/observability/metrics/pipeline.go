// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline and its HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics implements the pipeline observer over a private registry.
type PipelineMetrics struct {
	registry *prometheus.Registry

	analysesTotal *prometheus.CounterVec
	duration      prometheus.Histogram
	inFlight      prometheus.Gauge
	degradedTotal *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

func NewPipelineMetrics() *PipelineMetrics {
	m := &PipelineMetrics{
		registry: prometheus.NewRegistry(),
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dochelper_analyses_total",
			Help: "Completed analyses by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dochelper_analysis_duration_seconds",
			Help:    "End-to-end pipeline latency for non-cached analyses.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dochelper_analyses_in_flight",
			Help: "Analyses currently executing the pipeline.",
		}),
		degradedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dochelper_stage_degraded_total",
			Help: "Stage fallbacks by pipeline stage.",
		}, []string{"stage"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dochelper_cache_lookups_total",
			Help: "Result cache lookups by hit/miss.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.analysesTotal,
		m.duration,
		m.inFlight,
		m.degradedTotal,
		m.cacheLookups,
	)
	return m
}

func (m *PipelineMetrics) AnalysisStarted() {
	m.inFlight.Inc()
}

func (m *PipelineMetrics) AnalysisFinished(degraded bool, duration time.Duration) {
	m.inFlight.Dec()
	outcome := "complete"
	if degraded {
		outcome = "degraded"
	}
	m.analysesTotal.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}

func (m *PipelineMetrics) StageDegraded(stage string) {
	m.degradedTotal.WithLabelValues(stage).Inc()
}

func (m *PipelineMetrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Registry exposes the private registry so sibling metric sets can share
// one /metrics endpoint.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
