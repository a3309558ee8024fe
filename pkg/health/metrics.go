package health

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus gauges C10 publishes after each scheduler
// tick, registered on a dedicated registry rather than the global default
// (enrichment from octoreflex/internal/observability/metrics.go's
// collision-avoidance convention).
type Metrics struct {
	registry *prometheus.Registry

	Overall      *prometheus.GaugeVec
	ProbeStatus  *prometheus.GaugeVec
	HealingTotal *prometheus.CounterVec
}

// statusValue maps a Status to the numeric gauge value Prometheus stores:
// 0=healthy, 1=degraded, 2=unhealthy, matching severity ordering.
func statusValue(s Status) float64 {
	switch s {
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	default:
		return 0
	}
}

// NewMetrics builds and registers the gauges on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Overall: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aegis",
			Subsystem: "health",
			Name:      "overall_status",
			Help:      "Aggregated health status (0=healthy, 1=degraded, 2=unhealthy).",
		}, nil),
		ProbeStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aegis",
			Subsystem: "health",
			Name:      "probe_status",
			Help:      "Per-probe health status (0=healthy, 1=degraded, 2=unhealthy).",
		}, []string{"probe"}),
		HealingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aegis",
			Subsystem: "health",
			Name:      "healing_actions_total",
			Help:      "Count of healing actions executed, by name and outcome.",
		}, []string{"action", "outcome"}),
	}
	reg.MustRegister(m.Overall, m.ProbeStatus, m.HealingTotal)
	return m
}

// Registry exposes the underlying Prometheus registry for wiring into an
// HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) record(overall Status, reports []Report) {
	m.Overall.WithLabelValues().Set(statusValue(overall))
	for _, r := range reports {
		m.ProbeStatus.WithLabelValues(r.Name).Set(statusValue(r.Status))
	}
}
