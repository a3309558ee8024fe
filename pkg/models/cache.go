package models

// CacheEntry is a CAG cache record (spec §3). Invariants enforced by
// pkg/cag, not by this struct: LastAccessed >= CreatedAt, capped count by
// maxEntries, TTL eviction on access.
type CacheEntry struct {
	Fingerprint    string    `json:"fingerprint"`
	QueryText      string    `json:"queryText"`
	QueryEmbedding []float32 `json:"queryEmbedding"`
	Response       string    `json:"response"`
	Sources        []string  `json:"sources,omitempty"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      int64     `json:"createdAt"`
	LastAccessed   int64     `json:"lastAccessed"`
	HitCount       int64     `json:"hitCount"`
}
