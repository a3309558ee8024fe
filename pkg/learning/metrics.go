// Package learning implements the Feedback/Learning Loop (C11, spec
// §4.11): per-interaction metric scoring, EMA rolling aggregation,
// improvement-string generation, and a capped FIFO interaction history.
// The FIFO-trim-on-append shape is grounded on
// pkg/memory/working.go's bounded ring buffer (this codebase's own
// working-memory store), generalized from
// MemoryItem to LearningEntry.
package learning

import (
	"strings"
)

// Metrics are the four per-interaction scores spec §4.11 defines, each in
// [0,1].
type Metrics struct {
	SuccessRate float64
	Accuracy    float64
	Relevance   float64
	Efficiency  float64
}

// errorTokens mark a response as having failed outright.
var errorTokens = []string{"error", "exception", "failed", "traceback", "panic"}

// ScoreInteraction computes rule-based per-interaction metrics (spec
// §4.11): presence of an error token drops successRate/accuracy to 0;
// otherwise both default to 1. Relevance is a crude keyword-overlap ratio
// between input and response. Efficiency buckets on response length: very
// short or very long responses score lower than a mid-range response.
func ScoreInteraction(input, response string) Metrics {
	lower := strings.ToLower(response)
	hasError := false
	for _, tok := range errorTokens {
		if strings.Contains(lower, tok) {
			hasError = true
			break
		}
	}

	m := Metrics{SuccessRate: 1, Accuracy: 1, Relevance: relevance(input, response), Efficiency: efficiency(response)}
	if hasError {
		m.SuccessRate = 0
		m.Accuracy = 0
	}
	return m
}

func relevance(input, response string) float64 {
	inputWords := strings.Fields(strings.ToLower(input))
	if len(inputWords) == 0 {
		return 0
	}
	respLower := strings.ToLower(response)
	hits := 0
	for _, w := range inputWords {
		if len(w) < 3 {
			continue
		}
		if strings.Contains(respLower, w) {
			hits++
		}
	}
	return clamp01(float64(hits) / float64(len(inputWords)))
}

func efficiency(response string) float64 {
	n := len(response)
	switch {
	case n == 0:
		return 0
	case n < 20:
		return 0.4
	case n <= 800:
		return 1.0
	case n <= 2000:
		return 0.7
	default:
		return 0.4
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UpdateEMA applies the spec §4.11 rolling update: new = old*(1-alpha) +
// sample*alpha.
func UpdateEMA(old, sample, alpha float64) float64 {
	return old*(1-alpha) + sample*alpha
}

// UpdateRolling applies UpdateEMA to every field of a Metrics struct.
func UpdateRolling(old, sample Metrics, alpha float64) Metrics {
	return Metrics{
		SuccessRate: UpdateEMA(old.SuccessRate, sample.SuccessRate, alpha),
		Accuracy:    UpdateEMA(old.Accuracy, sample.Accuracy, alpha),
		Relevance:   UpdateEMA(old.Relevance, sample.Relevance, alpha),
		Efficiency:  UpdateEMA(old.Efficiency, sample.Efficiency, alpha),
	}
}

const metricThreshold = 0.7

// feedbackPhrases map structured feedback substrings to an improvement
// string (spec §4.11: "structured feedback phrases").
var feedbackPhrases = map[string]string{
	"inaccurate": "improve factual accuracy",
	"too long":   "shorten responses",
	"unclear":    "clarify explanations",
	"irrelevant": "improve relevance to the query",
	"too short":  "provide more detail",
}

// GenerateImprovements produces short improvement strings from metric
// thresholds and structured feedback phrases (spec §4.11).
func GenerateImprovements(m Metrics, feedback string) []string {
	var out []string
	if m.SuccessRate < metricThreshold {
		out = append(out, "improve success rate")
	}
	if m.Accuracy < metricThreshold {
		out = append(out, "improve factual accuracy")
	}
	if m.Relevance < metricThreshold {
		out = append(out, "improve relevance to the query")
	}
	if m.Efficiency < metricThreshold {
		out = append(out, "improve response efficiency")
	}

	lower := strings.ToLower(feedback)
	for phrase, improvement := range feedbackPhrases {
		if strings.Contains(lower, phrase) {
			out = append(out, improvement)
		}
	}

	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
