// Package metrics exposes prometheus collectors for the dataset pipeline.
// A nil *Collectors is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors groups the pipeline counters and histograms
type Collectors struct {
	registry     *prometheus.Registry
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	rules        *prometheus.CounterVec
	diagnostics  *prometheus.CounterVec
	summaries    *prometheus.CounterVec
	loadedRows   *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors
func New() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the collectors on reg
func NewWithRegistry(reg *prometheus.Registry) *Collectors {
	c := &Collectors{
		registry: reg,
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esgdash_dataset_loads_total",
			Help: "Dataset loads by dataset and resulting status.",
		}, []string{"dataset", "status"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "esgdash_dataset_load_duration_seconds",
			Help:    "Time spent reading and coercing a dataset.",
			Buckets: prometheus.DefBuckets,
		}, []string{"dataset"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esgdash_rule_evaluations_total",
			Help: "Derived rule evaluations by rule and kind (apply or adjust).",
		}, []string{"rule", "kind"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esgdash_diagnostics_total",
			Help: "Recovered soft failures by kind.",
		}, []string{"kind"}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esgdash_summaries_total",
			Help: "Summarization requests by outcome.",
		}, []string{"outcome"}),
		loadedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esgdash_dataset_rows",
			Help: "Row count of the most recent load per dataset.",
		}, []string{"dataset"}),
	}
	reg.MustRegister(c.loads, c.loadDuration, c.rules, c.diagnostics, c.summaries, c.loadedRows)
	return c
}

// ObserveLoad records one dataset load
func (c *Collectors) ObserveLoad(dataset, status string, rows int, took time.Duration) {
	if c == nil {
		return
	}
	c.loads.WithLabelValues(dataset, status).Inc()
	c.loadDuration.WithLabelValues(dataset).Observe(took.Seconds())
	c.loadedRows.WithLabelValues(dataset).Set(float64(rows))
}

// ObserveRule records one rule evaluation
func (c *Collectors) ObserveRule(rule, kind string) {
	if c == nil {
		return
	}
	c.rules.WithLabelValues(rule, kind).Inc()
}

// ObserveDiagnostic records one recovered soft failure
func (c *Collectors) ObserveDiagnostic(kind string) {
	if c == nil {
		return
	}
	c.diagnostics.WithLabelValues(kind).Inc()
}

// ObserveSummary records a summarization outcome: ok, error or disabled
func (c *Collectors) ObserveSummary(outcome string) {
	if c == nil {
		return
	}
	c.summaries.WithLabelValues(outcome).Inc()
}

// Registry returns the underlying registry
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
