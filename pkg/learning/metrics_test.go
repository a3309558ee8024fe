package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreInteractionDropsSuccessAndAccuracyOnErrorToken(t *testing.T) {
	m := ScoreInteraction("how do I scan a host", "An exception occurred while scanning")
	assert.Equal(t, 0.0, m.SuccessRate)
	assert.Equal(t, 0.0, m.Accuracy)
}

func TestScoreInteractionDefaultsSuccessAndAccuracyToOne(t *testing.T) {
	m := ScoreInteraction("how do I scan a host", "Use nmap to scan the target host for open ports")
	assert.Equal(t, 1.0, m.SuccessRate)
	assert.Equal(t, 1.0, m.Accuracy)
}

func TestUpdateEMAMatchesFormula(t *testing.T) {
	got := UpdateEMA(0.5, 1.0, 0.1)
	assert.InDelta(t, 0.55, got, 1e-9)
}

func TestGenerateImprovementsFlagsLowMetrics(t *testing.T) {
	m := Metrics{SuccessRate: 0.2, Accuracy: 1, Relevance: 1, Efficiency: 1}
	out := GenerateImprovements(m, "")
	assert.Contains(t, out, "improve success rate")
}

func TestGenerateImprovementsMapsFeedbackPhrases(t *testing.T) {
	m := Metrics{SuccessRate: 1, Accuracy: 1, Relevance: 1, Efficiency: 1}
	out := GenerateImprovements(m, "the answer was inaccurate and too long")
	assert.Contains(t, out, "improve factual accuracy")
	assert.Contains(t, out, "shorten responses")
}

func TestGenerateImprovementsDedupes(t *testing.T) {
	m := Metrics{SuccessRate: 0.1, Accuracy: 0.1, Relevance: 1, Efficiency: 1}
	out := GenerateImprovements(m, "inaccurate")
	count := 0
	for _, s := range out {
		if s == "improve factual accuracy" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
