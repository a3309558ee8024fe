package memory

import (
	"context"

	"github.com/aegis-sec/aegis/pkg/vectorstore"
)

// SemanticStore is the similarity-only memory type (spec §3): a thin,
// intentionally narrow wrapper over the pluggable vector store (C3) — no
// direct key-get, by design. It is not separately persisted (spec §6's
// file layout has no semantic.json): whichever vectorstore.Store variant
// is configured owns that durability concern itself.
type SemanticStore struct {
	backend vectorstore.Store
}

// NewSemanticStore wraps backend as the semantic memory type.
func NewSemanticStore(backend vectorstore.Store) *SemanticStore {
	return &SemanticStore{backend: backend}
}

// Upsert adds or replaces the snippet stored under key.
func (s *SemanticStore) Upsert(ctx context.Context, key, text string, metadata map[string]string) error {
	return s.backend.Add(ctx, key, text, metadata)
}

// SearchSimilar ranks stored snippets against query, returning at most k
// hits with score >= threshold.
func (s *SemanticStore) SearchSimilar(ctx context.Context, query string, k int, threshold float64) ([]vectorstore.Match, error) {
	return s.backend.FindSimilar(ctx, query, k, threshold)
}

// Remove deletes the snippet stored under key.
func (s *SemanticStore) Remove(ctx context.Context, key string) error {
	return s.backend.Remove(ctx, key)
}

// Count reports how many snippets are stored.
func (s *SemanticStore) Count(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}
