package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var punctuationRun = regexp.MustCompile(`[[:punct:]]+`)

// normalizeQuery trims, lowercases, and collapses runs of punctuation, the
// same canonicalization the retrieval pipeline applies before fingerprinting
// (spec §4.6 step 1). Duplicated here (rather than imported) because
// storeInteraction needs to derive the same fingerprint C6 will look up
// under, and pkg/memory must not depend on pkg/cag or pkg/retrieval.
func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return punctuationRun.ReplaceAllString(q, " ")
}

// fingerprint returns a stable hash of the normalized query (spec §3 cache
// entry invariant (a)), laid out byte for byte as pkg/retrieval's
// fingerprint for a query with no Category/Difficulty filter: the
// normalized text followed by two NUL separators.
func fingerprint(q string) string {
	sum := sha256.Sum256([]byte(normalizeQuery(q) + "\x00\x00"))
	return hex.EncodeToString(sum[:])
}
