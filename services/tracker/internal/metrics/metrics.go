// Package metrics exposes the tracker's Prometheus counters. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	tableLoads     *prometheus.CounterVec
	tableSaves     *prometheus.CounterVec
	submissions    prometheus.Counter
}

// New registers the tracker collectors, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "music_odyssey_enrichment_lookups_total",
				Help: "Enrichment lookups by source and outcome (success, fallback, error).",
			},
			[]string{"source", "status"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "music_odyssey_enrichment_lookup_duration_seconds",
				Help:    "Time spent in one enrichment lookup.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		tableLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "music_odyssey_table_loads_total",
				Help: "Schedule table loads by source (cache, remote, seed, none).",
			},
			[]string{"source"},
		),
		tableSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "music_odyssey_table_saves_total",
				Help: "Whole-table writes to the remote store by result.",
			},
			[]string{"result"},
		),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "music_odyssey_submissions_total",
			Help: "Listens recorded.",
		}),
	}
	m.registry.MustRegister(
		m.lookups, m.lookupDuration, m.tableLoads, m.tableSaves, m.submissions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Lookup(source, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(source, status).Inc()
	m.lookupDuration.WithLabelValues(source).Observe(took.Seconds())
}

func (m *Metrics) TableLoad(source string) {
	if m == nil {
		return
	}
	m.tableLoads.WithLabelValues(source).Inc()
}

func (m *Metrics) TableSave(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.tableSaves.WithLabelValues(result).Inc()
}

func (m *Metrics) Submission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}
