package metricskey

import (
	"sort"
	"testing"

	"github.com/effective-security/metrics"
	"github.com/stretchr/testify/assert"
)

func TestMetricsDefinitions(t *testing.T) {
	allMetrics := []*metrics.Describe{
		&PerfToolCall,
		&StatsToolCallsFailed,
		&StatsToolCallsNotFound,
		&StatsToolCallsSucceeded,
		&StatsToolRegistered,
	}

	for _, m := range allMetrics {
		assert.NotEmpty(t, m.Name, "Metric name should not be empty")
		assert.NotEmpty(t, m.Help, "Metric help text should not be empty")
		assert.NotEmpty(t, m.RequiredTags, "Metric should have required tags")
		assert.Contains(t, m.RequiredTags, "tool", "Tool metric should have tool tag: %s", m.Name)
	}

	assert.Equal(t, len(allMetrics), len(Metrics), "Metrics slice should contain all defined metrics")

	isSorted := sort.SliceIsSorted(Metrics, func(i, j int) bool {
		return Metrics[i].Name < Metrics[j].Name
	})
	assert.True(t, isSorted, "Metrics slice should be sorted by name")

	seen := make(map[string]bool)
	for _, m := range Metrics {
		assert.False(t, seen[m.Name], "Metric name should be unique: %s", m.Name)
		seen[m.Name] = true
	}

	t.Run("failed calls have kind tag", func(t *testing.T) {
		assert.Equal(t, []string{"tool", "kind"}, StatsToolCallsFailed.RequiredTags)
	})
	t.Run("types", func(t *testing.T) {
		assert.Equal(t, metrics.TypeSample, PerfToolCall.Type)
		assert.Equal(t, metrics.TypeCounter, StatsToolRegistered.Type)
	})
}
