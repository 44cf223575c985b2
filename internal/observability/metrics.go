package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_digest"

// Metrics holds the Prometheus collectors shared by the bot components.
type Metrics struct {
	Messages       *prometheus.CounterVec // labels: command={cancel,set_time,...,text}
	Digests        *prometheus.CounterVec // labels: source={scheduled,on_demand}, outcome={sent,error}
	UpstreamErrors *prometheus.CounterVec // labels: endpoint={forecast,observation}
	TriggerFires   *prometheus.CounterVec // labels: outcome={delivered,error,stale,panic}
	TriggersActive prometheus.Gauge
}

func newCollectors() *Metrics {
	return &Metrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound chat messages by recognised command.",
		}, []string{"command"}),
		Digests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digests_total",
			Help:      "Weather digests pushed to users by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed weather provider calls by endpoint.",
		}, []string{"endpoint"}),
		TriggerFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trigger_fires_total",
			Help:      "Daily trigger firings by outcome.",
		}, []string{"outcome"}),
		TriggersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "triggers_active",
			Help:      "Number of armed per-user daily triggers.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.Messages,
		m.Digests,
		m.UpstreamErrors,
		m.TriggerFires,
		m.TriggersActive,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}
