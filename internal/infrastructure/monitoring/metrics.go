package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	AdmissionDecisions *prometheus.CounterVec
	Acquisitions       *prometheus.CounterVec
	AcquisitionLatency *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
	LadderDepth        *prometheus.HistogramVec
	QueueWaiters       prometheus.Gauge
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		AdmissionDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipgate_admission_decisions_total",
				Help: "Total number of admission decisions by outcome.",
			},
			[]string{"outcome"},
		),
		Acquisitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipgate_acquisitions_total",
				Help: "Total number of acquisition attempts by kind and result.",
			},
			[]string{"kind", "result"},
		),
		AcquisitionLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clipgate_acquisition_latency_seconds",
				Help:    "Latency of full acquisition pipeline runs.",
				Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"kind"},
		),
		CacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipgate_cache_lookups_total",
				Help: "Total number of media cache lookups by result.",
			},
			[]string{"result"},
		),
		LadderDepth: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clipgate_ladder_depth",
				Help:    "Number of format candidates tried before success.",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 7},
			},
			[]string{"kind"},
		),
		QueueWaiters: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "clipgate_queue_waiters",
				Help: "Current number of requests waiting for admission.",
			},
		),
	}
}

// RecordAdmission records an admission decision outcome.
func (m *Metrics) RecordAdmission(outcome string) {
	m.AdmissionDecisions.WithLabelValues(outcome).Inc()
}

// RecordAcquisition records a finished pipeline run.
func (m *Metrics) RecordAcquisition(kind, result string, duration time.Duration) {
	m.Acquisitions.WithLabelValues(kind, result).Inc()
	m.AcquisitionLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache lookup with result "hit" or "miss".
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordLadderDepth records how many candidates a successful run consumed.
func (m *Metrics) RecordLadderDepth(kind string, depth int) {
	m.LadderDepth.WithLabelValues(kind).Observe(float64(depth))
}

// AdmissionWaitStarted bumps the waiter gauge while a request sits in
// admission, the matching AdmissionWaitFinished drops it again.
func (m *Metrics) AdmissionWaitStarted() {
	m.QueueWaiters.Inc()
}

// AdmissionWaitFinished is the counterpart of AdmissionWaitStarted.
func (m *Metrics) AdmissionWaitFinished() {
	m.QueueWaiters.Dec()
}
