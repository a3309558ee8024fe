package memory

import (
	"sort"
	"strings"
	"unicode"
)

// extractConceptPhrases tokenizes text into words, keeps those longer than
// 4 characters, and returns the top 5 by frequency, ties broken by first
// appearance (spec §4.4: "extract concept phrases (length > 4, top 5 by
// frequency)").
func extractConceptPhrases(text string) []string {
	counts := make(map[string]int)
	var order []string

	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		w := strings.ToLower(word)
		if len(w) <= 4 {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > 5 {
		order = order[:5]
	}
	return order
}
