// Package vectorstore implements the core's pluggable vector store (C3):
// embedding add, k-NN similarity search, and delete, behind a single
// Store interface with three interchangeable backends (spec §4.3).
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// Embedder turns text into a fixed-dimension vector. The orchestration
// core's out-of-scope LLM backend supplies this (spec §1's
// `embed(text) → vector` contract); vectorstore only consumes it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Match is one similarity hit.
type Match struct {
	ID    string
	Text  string
	Score float64
}

// Store is the capability every vector store variant implements (spec
// §4.3). All operations may fail with a wrapped coreerr.ErrBackendUnavailable;
// callers translate that into DegradedMode (spec's retrieval pipeline does
// this in pkg/retrieval).
type Store interface {
	// Add computes text's embedding and stores (id, text, vector,
	// metadata). Idempotent on id — a second Add with the same id
	// overwrites rather than duplicates.
	Add(ctx context.Context, id, text string, metadata map[string]string) error

	// FindSimilar ranks stored vectors against query's embedding by
	// cosine similarity, returning at most k results with score ≥
	// threshold, ordered descending by score.
	FindSimilar(ctx context.Context, query string, k int, threshold float64) ([]Match, error)

	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Factory constructs a Store variant from a generic options map, so a
// backend can be selected at runtime from config without the caller
// importing every concrete implementation package (spec §6:
// memory.vectorStore ∈ {inmemory, server, sql}). Grounded on
// itsneelabh-gomind/ai/registry.go's ProviderFactory + global-registry
// shape, generalized from AI-client providers to vector-store backends.
type Factory func(ctx context.Context, embedder Embedder, opts map[string]string) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register installs a named backend factory. Called from each backend's
// init() (inmemory, server, sql), mirroring the teacher pack's
// provider-registration idiom.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs the backend named variant (spec's memory.vectorStore).
func New(ctx context.Context, variant string, embedder Embedder, opts map[string]string) (Store, error) {
	registryMu.RLock()
	factory, ok := registry[variant]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("vectorstore: unknown backend %q", variant)
	}
	store, err := factory(ctx, embedder, opts)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_INIT", "", err)
	}
	return store, nil
}

// cosineSimilarity computes the cosine similarity of two equal-length
// vectors. Returns 0 for a zero-norm vector rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
