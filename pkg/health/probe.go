// Package health implements the Health Monitor & Self-Healer (C10, spec
// §4.10): a periodic scheduler running parallel component probes with
// aggregation and severity-scoped healing actions. Grounded on
// codeready-toolchain-tarsy/pkg/cleanup/service.go's
// ticker-driven background-loop lifecycle (Start/Stop/run), generalized
// from a single retention sweep to parallel multi-probe fan-out.
// Prometheus gauge publication is enrichment from
// wisbric-nightowl's prometheus/client_golang usage.
package health

import "context"

// Status is a probe or overall aggregation result.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Report is what a probe returns (spec §4.10: "{status, message, metrics}").
type Report struct {
	Name    string
	Status  Status
	Message string
	Metrics map[string]float64
}

// Probe checks one component's health.
type Probe interface {
	Name() string
	Check(ctx context.Context) Report
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc struct {
	ProbeName string
	Fn        func(ctx context.Context) Report
}

func (p ProbeFunc) Name() string { return p.ProbeName }
func (p ProbeFunc) Check(ctx context.Context) Report {
	r := p.Fn(ctx)
	r.Name = p.ProbeName
	return r
}

// Aggregate combines probe reports per spec §4.10: unhealthy if any probe
// is unhealthy, degraded if any is degraded and none unhealthy, else
// healthy.
func Aggregate(reports []Report) Status {
	sawDegraded := false
	for _, r := range reports {
		if r.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if r.Status == StatusDegraded {
			sawDegraded = true
		}
	}
	if sawDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
