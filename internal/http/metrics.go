package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "tunefetch"

// Metrics holds the service collectors on a private registry, so several
// instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	DeliveredBytes     prometheus.Histogram
	ErrorsTotal        *prometheus.CounterVec
	InFlight           prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total number of chat messages handled, by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "resolution_duration_seconds",
				Help:      "Time spent searching and extracting audio",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"result"},
		),
		DeliveredBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "delivered_audio_bytes",
				Help:      "Size of delivered audio files",
				Buckets:   prometheus.ExponentialBuckets(512*1024, 2, 8),
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "errors_total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being resolved",
			},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.ResolutionDuration,
		m.DeliveredBytes,
		m.ErrorsTotal,
		m.InFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TrackDedupSize exports the number of remembered update IDs as the
// dedup_entries gauge. size is called on every scrape.
func (m *Metrics) TrackDedupSize(size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dedup_entries",
			Help:      "Number of update IDs remembered for de-duplication",
		},
		func() float64 { return float64(size()) },
	))
}

func (m *Metrics) RecordRequest(outcome string) {
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordResolution(result string, seconds float64) {
	m.ResolutionDuration.WithLabelValues(result).Observe(seconds)
}

func (m *Metrics) RecordDelivery(bytes int64) {
	m.DeliveredBytes.Observe(float64(bytes))
}

func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func (m *Metrics) IncInFlight() {
	m.InFlight.Inc()
}

func (m *Metrics) DecInFlight() {
	m.InFlight.Dec()
}
