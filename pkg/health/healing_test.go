package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testActions() []Action {
	return []Action{
		{Name: "clear-memory-cache", Severity: SeverityLow},
		{Name: "restart-performance-monitoring", Severity: SeverityMedium},
		{Name: "optimize-memory-usage", Severity: SeverityMedium},
		{Name: "validate-system-integrity", Severity: SeverityHigh},
	}
}

func TestSelectActionsHealthyRunsNone(t *testing.T) {
	assert.Empty(t, SelectActions(StatusHealthy, testActions()))
}

func TestSelectActionsDegradedRunsLowAndMediumOnly(t *testing.T) {
	selected := SelectActions(StatusDegraded, testActions())
	assert.Len(t, selected, 3)
	for _, a := range selected {
		assert.NotEqual(t, SeverityHigh, a.Severity)
	}
}

func TestSelectActionsUnhealthyRunsAll(t *testing.T) {
	selected := SelectActions(StatusUnhealthy, testActions())
	assert.Len(t, selected, 4)
}
