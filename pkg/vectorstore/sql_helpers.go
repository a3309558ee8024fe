package vectorstore

import (
	"encoding/json"
	"sort"
)

// metadataToJSON renders m as a JSON string rather than []byte so pgx binds
// it as text, which Postgres casts cleanly to jsonb; a []byte parameter
// binds as bytea, which jsonb cannot cast from directly.
func metadataToJSON(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
}
