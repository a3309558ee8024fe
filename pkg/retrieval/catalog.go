package retrieval

import (
	"strings"

	"github.com/aegis-sec/aegis/pkg/models"
)

// ConceptGraph is the narrow view the pipeline needs of
// *memory.ConceptGraph (structural typing, avoiding an import cycle the
// way pkg/memory's CacheSeeder/CacheLookup interfaces already do).
type ConceptGraph interface {
	Nodes() []models.GraphNode
}

// CatalogFilter restricts a knowledge-catalog lookup (spec §4.6 step 3b:
// "restricted by optional category/difficulty filters"). Empty strings
// mean "no restriction" for that dimension.
type CatalogFilter struct {
	Category   string
	Difficulty string
}

func propString(props map[string]models.Value, key string) string {
	v, ok := props[key]
	if !ok || v.Kind != models.KindString {
		return ""
	}
	return v.Str
}

// LookupCatalog scans the concept graph for nodes whose label matches the
// query loosely (case-insensitive substring, after both sides pass through
// normalizeQuery) and whose category/difficulty properties satisfy filter.
// There is no teacher equivalent for a "knowledge catalog restricted by
// category/difficulty" concept; this is built directly from spec text
// over the existing concept-graph node shape.
func LookupCatalog(graph ConceptGraph, query string, filter CatalogFilter) []models.GraphNode {
	if graph == nil {
		return nil
	}
	var out []models.GraphNode
	for _, n := range graph.Nodes() {
		if filter.Category != "" && propString(n.Properties, "category") != filter.Category {
			continue
		}
		if filter.Difficulty != "" && propString(n.Properties, "difficulty") != filter.Difficulty {
			continue
		}
		if query != "" && !containsFold(n.Label, query) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func containsFold(haystack, needle string) bool {
	n := normalizeQuery(needle)
	if n == "" {
		return true
	}
	return strings.Contains(normalizeQuery(haystack), n)
}
