// Package metrics exposes Prometheus counters for crawl runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusFiltered = "filtered"
)

type CrawlMetrics struct {
	registry *prometheus.Registry

	readsTotal   *prometheus.CounterVec
	readDuration *prometheus.HistogramVec
	readBytes    prometheus.Histogram
	runsTotal    *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

func NewCrawlMetrics(job string) *CrawlMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"job_name": job}

	readsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "crawler",
			Subsystem:   "reader",
			Name:        "targets_total",
			Help:        "Targets handled by the reader, by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	readDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "crawler",
			Subsystem:   "reader",
			Name:        "read_duration_seconds",
			Help:        "Reader request duration in seconds.",
			Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	readBytes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "crawler",
			Subsystem:   "reader",
			Name:        "page_bytes",
			Help:        "Size of pages returned by the reader.",
			Buckets:     prometheus.ExponentialBuckets(1024, 4, 8),
			ConstLabels: constLabels,
		},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "crawler",
			Subsystem:   "job",
			Name:        "runs_total",
			Help:        "Crawl runs by final status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	lastRun := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "crawler",
			Subsystem:   "job",
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the last run completed.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(readsTotal, readDuration, readBytes, runsTotal, lastRun)

	return &CrawlMetrics{
		registry:     registry,
		readsTotal:   readsTotal,
		readDuration: readDuration,
		readBytes:    readBytes,
		runsTotal:    runsTotal,
		lastRun:      lastRun,
	}
}

func (m *CrawlMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRead records one reader call. size is ignored for failed reads.
func (m *CrawlMetrics) ObserveRead(status string, elapsed time.Duration, size int) {
	if m == nil {
		return
	}
	m.readsTotal.WithLabelValues(status).Inc()
	m.readDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if status == StatusOK {
		m.readBytes.Observe(float64(size))
	}
}

// ObserveDropped counts a target that never reached the reader.
func (m *CrawlMetrics) ObserveDropped(status string) {
	if m == nil {
		return
	}
	m.readsTotal.WithLabelValues(status).Inc()
}

func (m *CrawlMetrics) ObserveRun(status string, completedAt time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.lastRun.Set(float64(completedAt.Unix()))
}
