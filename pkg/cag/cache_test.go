package cag

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-sec/aegis/pkg/models"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	switch text {
	case "what is sql injection?":
		return []float32{1, 0, 0}, nil
	case "explain sql injection attacks":
		return []float32{0.99, 0.01, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func TestLookupExactHit(t *testing.T) {
	c := New(Options{}, nil)
	c.Insert("fp1", "what is sql injection?", []float32{1, 0, 0}, "SQLi is ...", nil, 0.9)

	value, ok := c.Lookup(context.Background(), "fp1")
	require.True(t, ok)
	assert.Equal(t, "SQLi is ...", value)
}

func TestLookupMissOnUnknownFingerprint(t *testing.T) {
	c := New(Options{}, nil)
	_, ok := c.Lookup(context.Background(), "unknown")
	assert.False(t, ok)
}

func TestLookupFullFallsBackToSemanticMatch(t *testing.T) {
	c := New(Options{Embedder: fakeEmbedder{}, SemanticThreshold: 0.9}, nil)
	c.Insert("fp1", "what is sql injection?", []float32{1, 0, 0}, "SQLi is ...", nil, 0.9)

	hit, ok := c.LookupFull(context.Background(), "does-not-exist", "explain sql injection attacks")
	require.True(t, ok)
	assert.Equal(t, HitSemantic, hit.Type)
	assert.Equal(t, "SQLi is ...", hit.Entry.Response)
}

func TestLookupFullBelowThresholdMisses(t *testing.T) {
	c := New(Options{Embedder: fakeEmbedder{}, SemanticThreshold: 0.95}, nil)
	c.Insert("fp1", "what is sql injection?", []float32{1, 0, 0}, "SQLi is ...", nil, 0.9)

	_, ok := c.LookupFull(context.Background(), "does-not-exist", "totally unrelated phishing question")
	assert.False(t, ok)
}

func TestExpiredEntryIsEvictedOnAccess(t *testing.T) {
	c := New(Options{TTL: time.Nanosecond}, nil)
	c.Insert("fp1", "q", nil, "resp", nil, 0.9)
	time.Sleep(time.Millisecond)

	_, ok := c.Lookup(context.Background(), "fp1")
	assert.False(t, ok)
}

func TestExpiryIsMeasuredFromCreatedAtNotLastAccessed(t *testing.T) {
	c := New(Options{TTL: 20 * time.Millisecond}, nil)
	c.Insert("fp1", "q", nil, "resp", nil, 0.9)

	deadline := time.Now().Add(30 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, ok := c.Lookup(context.Background(), "fp1")
		assert.True(t, ok, "entry should still be live before TTL elapses")
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(5 * time.Millisecond)
	_, ok := c.Lookup(context.Background(), "fp1")
	assert.False(t, ok, "repeated access must not extend createdAt-based TTL")
}

func TestInsertEvictsLeastRecentlyUsedOverCapacity(t *testing.T) {
	c := New(Options{MaxEntries: 2}, nil)
	c.Insert("fp1", "q1", nil, "r1", nil, 0.9)
	c.Insert("fp2", "q2", nil, "r2", nil, 0.9)
	c.Insert("fp3", "q3", nil, "r3", nil, 0.9)

	_, ok := c.Lookup(context.Background(), "fp1")
	assert.False(t, ok, "fp1 should have been evicted as least recently used")

	_, ok = c.Lookup(context.Background(), "fp3")
	assert.True(t, ok)
}

func TestSeedDoesNotOverwriteExistingEntry(t *testing.T) {
	c := New(Options{}, nil)
	c.Insert("fp1", "q", nil, "original", nil, 0.9)
	c.Seed("fp1", "seeded-over", "", time.Now().UnixNano())

	value, ok := c.Lookup(context.Background(), "fp1")
	require.True(t, ok)
	assert.Equal(t, "original", value)
}

func TestSingleFlightCollapsesConcurrentMisses(t *testing.T) {
	c := New(Options{}, nil)
	var calls int32

	var wg sync.WaitGroup
	results := make([]Hit, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hit, err := c.SingleFlight("fp1", func() (Hit, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return Hit{Entry: models.CacheEntry{Response: "resp"}}, nil
			})
			require.NoError(t, err)
			results[i] = hit
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "resp", r.Entry.Response)
	}
}

func TestExportImportRoundTrips(t *testing.T) {
	c := New(Options{}, nil)
	c.Insert("fp1", "q1", nil, "r1", nil, 0.9)
	c.Insert("fp2", "q2", nil, "r2", nil, 0.8)

	entries := c.Export()
	require.Len(t, entries, 2)

	c2 := New(Options{}, nil)
	c2.Import(entries)

	value, ok := c2.Lookup(context.Background(), "fp1")
	require.True(t, ok)
	assert.Equal(t, "r1", value)
}

func TestEvictRemovesExpiredEntries(t *testing.T) {
	c := New(Options{TTL: time.Nanosecond}, nil)
	c.Insert("fp1", "q", nil, "r", nil, 0.9)
	time.Sleep(time.Millisecond)

	c.Evict()
	assert.Empty(t, c.Export())
}
