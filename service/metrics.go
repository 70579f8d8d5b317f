package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "registry"

// Metrics holds the registry's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	registrations   prometheus.Counter
	unregistrations prometheus.Counter
	sweeps          prometheus.Counter
	sweptInstances  prometheus.Counter
	sweepDuration   prometheus.Histogram
	storeErrors     *prometheus.CounterVec
}

// NewMetrics registers the registry collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "registrations_total",
			Help:      "Registrations and refreshes accepted.",
		}),
		unregistrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unregistrations_total",
			Help:      "Unregistrations accepted, including ones for absent instances.",
		}),
		sweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sweeps_total",
			Help:      "Expiration sweeps run.",
		}),
		sweptInstances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "swept_instances_total",
			Help:      "Instances removed by expiration sweeps.",
		}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiration sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		storeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "store_errors_total",
			Help:      "Failed store operations.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) registered() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *Metrics) unregistered() {
	if m != nil {
		m.unregistrations.Inc()
	}
}

func (m *Metrics) swept(removed int, took time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.sweptInstances.Add(float64(removed))
	m.sweepDuration.Observe(took.Seconds())
}

func (m *Metrics) storeFailed(operation string) {
	if m != nil {
		m.storeErrors.WithLabelValues(operation).Inc()
	}
}
