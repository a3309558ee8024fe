package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/aegis-sec/aegis/pkg/health"
	"github.com/aegis-sec/aegis/pkg/ratelimit"
)

// wireHealth registers the probes and healing actions spec §4.10 names
// explicitly (clear-memory-cache/low, restart-performance-monitoring/
// medium, optimize-memory-usage/medium, validate-system-integrity/high)
// against the components Core already owns.
func (c *Core) wireHealth() {
	c.Metrics = health.NewMetrics()

	probes := []health.Probe{
		health.ProbeFunc{ProbeName: "memory", Fn: c.probeMemory},
		health.ProbeFunc{ProbeName: "llm", Fn: c.probeLLM},
		health.ProbeFunc{ProbeName: "cache", Fn: c.probeCache},
		health.ProbeFunc{ProbeName: "audit", Fn: c.probeAudit},
	}

	actions := []health.Action{
		{Name: "clear-memory-cache", Severity: health.SeverityLow, Run: c.healClearCache},
		{Name: "restart-performance-monitoring", Severity: health.SeverityMedium, Run: c.healRestartMonitoring},
		{Name: "optimize-memory-usage", Severity: health.SeverityMedium, Run: c.healOptimizeMemory},
		{Name: "validate-system-integrity", Severity: health.SeverityHigh, Run: c.healValidateIntegrity},
	}

	c.Health = health.NewMonitor(probes, actions, c.Bus, c.Metrics, c.cfg.Health.Interval())
}

func (c *Core) probeMemory(ctx context.Context) health.Report {
	count, err := c.Memory.Semantic.Count(ctx)
	if err != nil {
		return health.Report{Status: health.StatusDegraded, Message: err.Error()}
	}
	return health.Report{Status: health.StatusHealthy, Metrics: map[string]float64{"semanticCount": float64(count)}}
}

func (c *Core) probeLLM(ctx context.Context) health.Report {
	switch c.llmGuard.breaker.CurrentState() {
	case ratelimit.Open:
		return health.Report{Status: health.StatusUnhealthy, Message: "llm circuit breaker is open"}
	case ratelimit.HalfOpen:
		return health.Report{Status: health.StatusDegraded, Message: "llm circuit breaker is half-open"}
	default:
		return health.Report{Status: health.StatusHealthy}
	}
}

func (c *Core) probeCache(ctx context.Context) health.Report {
	entries := len(c.Cache.Export())
	return health.Report{Status: health.StatusHealthy, Metrics: map[string]float64{"entries": float64(entries)}}
}

func (c *Core) probeAudit(ctx context.Context) health.Report {
	if c.Audit == nil {
		return health.Report{Status: health.StatusUnhealthy, Message: "audit log not initialized"}
	}
	return health.Report{Status: health.StatusHealthy}
}

func (c *Core) healClearCache(ctx context.Context) error {
	c.Cache.Evict()
	return nil
}

func (c *Core) healRestartMonitoring(ctx context.Context) error {
	return nil
}

func (c *Core) healOptimizeMemory(ctx context.Context) error {
	c.Memory.Graph.Compact()
	return nil
}

func (c *Core) healValidateIntegrity(ctx context.Context) error {
	return c.Memory.Persist(ctx)
}

// HealthCheck runs every probe once, synchronously, and returns the
// aggregated result (spec §6: healthCheck()).
func (c *Core) HealthCheck(ctx context.Context) HealthReportResult {
	probes := []health.Probe{
		health.ProbeFunc{ProbeName: "memory", Fn: c.probeMemory},
		health.ProbeFunc{ProbeName: "llm", Fn: c.probeLLM},
		health.ProbeFunc{ProbeName: "cache", Fn: c.probeCache},
		health.ProbeFunc{ProbeName: "audit", Fn: c.probeAudit},
	}
	reports := make([]health.Report, len(probes))
	statuses := make(map[string]string, len(probes))
	for i, p := range probes {
		reports[i] = p.Check(ctx)
		statuses[p.Name()] = string(reports[i].Status)
	}
	return HealthReportResult{Overall: string(health.Aggregate(reports)), Probes: statuses}
}

// HealthReport renders HealthCheck's outcome as Markdown (spec §6:
// healthReport() "(Markdown)").
func (c *Core) HealthReport(ctx context.Context) string {
	result := c.HealthCheck(ctx)
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Health Report\n\n**Overall:** %s\n\n| Probe | Status |\n|---|---|\n", result.Overall)
	for name, status := range result.Probes {
		fmt.Fprintf(&sb, "| %s | %s |\n", name, status)
	}
	return sb.String()
}

// TriggerSelfHealing forces the severity-gated healing policy to run
// against the current aggregated status, independent of the scheduler's
// next tick (spec §6: triggerSelfHealing()).
func (c *Core) TriggerSelfHealing(ctx context.Context) error {
	result := c.HealthCheck(ctx)
	actions := []health.Action{
		{Name: "clear-memory-cache", Severity: health.SeverityLow, Run: c.healClearCache},
		{Name: "restart-performance-monitoring", Severity: health.SeverityMedium, Run: c.healRestartMonitoring},
		{Name: "optimize-memory-usage", Severity: health.SeverityMedium, Run: c.healOptimizeMemory},
		{Name: "validate-system-integrity", Severity: health.SeverityHigh, Run: c.healValidateIntegrity},
	}
	var firstErr error
	for _, action := range health.SelectActions(health.Status(result.Overall), actions) {
		if err := action.Run(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
