package health

import "testing"
import "github.com/stretchr/testify/assert"

func TestAggregateHealthyWhenAllHealthy(t *testing.T) {
	reports := []Report{{Status: StatusHealthy}, {Status: StatusHealthy}}
	assert.Equal(t, StatusHealthy, Aggregate(reports))
}

func TestAggregateDegradedWhenAnyDegradedAndNoneUnhealthy(t *testing.T) {
	reports := []Report{{Status: StatusHealthy}, {Status: StatusDegraded}}
	assert.Equal(t, StatusDegraded, Aggregate(reports))
}

func TestAggregateUnhealthyWhenAnyUnhealthy(t *testing.T) {
	reports := []Report{{Status: StatusDegraded}, {Status: StatusUnhealthy}}
	assert.Equal(t, StatusUnhealthy, Aggregate(reports))
}
