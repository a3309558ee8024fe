package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

func init() {
	Register("inmemory", func(_ context.Context, embedder Embedder, _ map[string]string) (Store, error) {
		if embedder == nil {
			return nil, fmt.Errorf("vectorstore: inmemory backend requires an embedder")
		}
		return NewInMemory(embedder), nil
	})
}

type entry struct {
	text     string
	vector   []float32
	metadata map[string]string
}

// InMemory is a brute-force cosine-similarity store. Intended for tests,
// small deployments, and as the default when no external vector backend
// is configured.
type InMemory struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  map[string]entry
}

// NewInMemory builds an InMemory store using embedder for Add/FindSimilar.
func NewInMemory(embedder Embedder) *InMemory {
	return &InMemory{embedder: embedder, entries: make(map[string]entry)}
}

func (s *InMemory) Add(ctx context.Context, id, text string, metadata map[string]string) error {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("vectorstore: embedding %q: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{text: text, vector: vec, metadata: metadata}
	return nil
}

func (s *InMemory) FindSimilar(ctx context.Context, query string, k int, threshold float64) ([]Match, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: embedding query: %w", err)
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.entries))
	for id, e := range s.entries {
		score := cosineSimilarity(queryVec, e.vector)
		if score >= threshold {
			matches = append(matches, Match{ID: id, Text: e.text, Score: score})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID // stable tie-break
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *InMemory) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}
