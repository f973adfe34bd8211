package annotations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports annotation events as Prometheus metrics.
type Metrics struct {
	eventsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	solutions   prometheus.Counter
	failures    prometheus.Counter
}

// NewMetrics registers the evaluation metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sparql",
			Subsystem: "evaluation",
			Name:      "events_total",
			Help:      `The cumulative number of annotation events, by event name.`,
		}, []string{"event"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sparql",
			Subsystem: "evaluation",
			Name:      "event_latency_seconds",
			Help: `The latency recorded on annotation events, by event name.

For evaluation/complete this is the time from opening the result iterator
until it was closed.`,
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"event"}),
		solutions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparql",
			Subsystem: "evaluation",
			Name:      "solutions_total",
			Help:      `The cumulative number of solutions returned by completed evaluations.`,
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparql",
			Subsystem: "evaluation",
			Name:      "failures_total",
			Help:      `The cumulative number of evaluations that ended with an error.`,
		}),
	}
}

// Handle records event.
func (m *Metrics) Handle(event Event) {
	m.eventsTotal.WithLabelValues(event.Name).Inc()
	if event.Latency > 0 {
		m.latency.WithLabelValues(event.Name).Observe(event.Latency.Seconds())
	}
	if event.Name == EvaluationComplete {
		m.solutions.Add(float64(intData(event, "solutions")))
		if success, _ := event.Data["success"].(bool); !success {
			m.failures.Inc()
		}
	}
}

// NewPrometheusHandler returns a Handler that records events in metrics
// registered with reg.
func NewPrometheusHandler(reg prometheus.Registerer) Handler {
	return NewMetrics(reg).Handle
}
