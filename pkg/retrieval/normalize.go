package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var punctuationRun = regexp.MustCompile(`[[:punct:]]+`)

// normalizeQuery trims, lowercases, and collapses runs of punctuation
// (spec §4.6 step 1). Duplicated rather than imported from pkg/memory,
// which computes the identical canonicalization for its own fingerprinting
// needs: the two packages must not depend on each other.
func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return punctuationRun.ReplaceAllString(q, " ")
}

// fingerprint returns a stable hash of the normalized query plus the
// salient options that distinguish otherwise-identical queries (spec §3
// cache-entry invariant (a), glossary "Fingerprint"): two calls for the
// same text under a different Category/Difficulty filter must not collide
// on the same cache entry.
func fingerprint(q string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(normalizeQuery(q)))
	h.Write([]byte{0})
	h.Write([]byte(opts.Category))
	h.Write([]byte{0})
	h.Write([]byte(opts.Difficulty))
	return hex.EncodeToString(h.Sum(nil))
}
