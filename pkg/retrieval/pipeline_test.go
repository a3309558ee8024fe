package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/aegis-sec/aegis/pkg/bus"
	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/models"
	"github.com/aegis-sec/aegis/pkg/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	hit      CacheHit
	hitOK    bool
	inserted bool
}

func (f *fakeCache) LookupFull(ctx context.Context, fingerprint, queryText string) (CacheHit, bool) {
	return f.hit, f.hitOK
}
func (f *fakeCache) Insert(fingerprint, queryText string, queryEmbedding []float32, response string, sources []string, confidence float64) {
	f.inserted = true
}
func (f *fakeCache) SingleFlight(fingerprint string, fn func() (CacheHit, error)) (CacheHit, error) {
	return fn()
}

type fakeMemory struct {
	matches []vectorstore.Match
}

func (f fakeMemory) RetrieveRelevant(ctx context.Context, query, fp string, limit int) ([]vectorstore.Match, error) {
	return f.matches, nil
}

type fakeGraph struct{ nodes []models.GraphNode }

func (f fakeGraph) Nodes() []models.GraphNode { return f.nodes }

type fakeGenerator struct {
	text string
	err  error
}

func (f fakeGenerator) Generate(ctx context.Context, prompt string) (string, int, error) {
	return f.text, len(f.text), f.err
}
func (f fakeGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type fakeGuard struct{ err error }

func (g fakeGuard) Consume(ctx context.Context, n int) error { return nil }
func (g fakeGuard) Call(fn func() error) error {
	if g.err != nil {
		return g.err
	}
	return fn()
}

func TestProcessReturnsCachedExactHitWithoutGenerating(t *testing.T) {
	cache := &fakeCache{hit: CacheHit{Response: "cached answer", Type: "exact", Confidence: 0.9}, hitOK: true}
	p := &Pipeline{Cache: cache, Generator: fakeGenerator{text: "should not be used"}}

	res, err := p.Process(context.Background(), "what is nmap", Options{UseCache: true})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "cached answer", res.Answer)
}

func TestProcessGeneratesOnMissAndInsertsIntoCache(t *testing.T) {
	cache := &fakeCache{}
	mem := fakeMemory{matches: []vectorstore.Match{{ID: "m1", Text: "nmap scans ports", Score: 0.8}}}
	p := &Pipeline{
		Cache:     cache,
		Memory:    mem,
		Generator: fakeGenerator{text: "nmap is a network scanner used for host discovery"},
		Bus:       bus.New(nil),
	}

	res, err := p.Process(context.Background(), "what is nmap", Options{UseCache: true})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.NotEmpty(t, res.Answer)
	assert.True(t, cache.inserted)
	assert.Greater(t, res.Confidence, 0.0)
}

func TestProcessFallsBackToExactCacheOnGenerationFailure(t *testing.T) {
	cache := &fakeCache{hit: CacheHit{Response: "stale but fine", Type: "exact"}, hitOK: true}
	p := &Pipeline{
		Cache:     cache,
		Generator: fakeGenerator{err: errors.New("backend down")},
	}

	res, err := p.Process(context.Background(), "q", Options{UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, "stale but fine", res.Answer)
}

func TestProcessFallsBackToHighConfidenceSemanticHit(t *testing.T) {
	cache := &fakeCache{hit: CacheHit{Response: "semantic answer", Type: "semantic", Score: 0.97}, hitOK: true}
	p := &Pipeline{
		Cache:     cache,
		Generator: fakeGenerator{err: errors.New("backend down")},
	}

	res, err := p.Process(context.Background(), "q", Options{UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, "semantic answer", res.Answer)
}

func TestProcessReturnsGenerationUnavailableWhenNoFallbackQualifies(t *testing.T) {
	cache := &fakeCache{hit: CacheHit{Response: "weak", Type: "semantic", Score: 0.5}, hitOK: true}
	p := &Pipeline{
		Cache:     cache,
		Generator: fakeGenerator{err: errors.New("backend down")},
	}

	_, err := p.Process(context.Background(), "q", Options{UseCache: false})
	require.Error(t, err)
	assert.True(t, coreerr.Is(err, coreerr.ErrGenerationUnavailable))
}

func TestLookupCatalogFiltersByCategory(t *testing.T) {
	graph := fakeGraph{nodes: []models.GraphNode{
		{Label: "sql injection", Properties: map[string]models.Value{"category": models.NewString("web")}},
		{Label: "buffer overflow", Properties: map[string]models.Value{"category": models.NewString("binary")}},
	}}

	out := LookupCatalog(graph, "", CatalogFilter{Category: "web"})
	require.Len(t, out, 1)
	assert.Equal(t, "sql injection", out[0].Label)
}

func TestDeriveConfidenceIsZeroForEmptyText(t *testing.T) {
	assert.Equal(t, 0.0, deriveConfidence(0.9, "", 0))
}

func TestDeriveConfidenceSaturatesLengthSignal(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	c := deriveConfidence(1.0, string(long), 500)
	assert.InDelta(t, 1.0, c, 1e-9)
}
