package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-sec/aegis/pkg/crypto"
	"github.com/aegis-sec/aegis/pkg/models"
	"github.com/aegis-sec/aegis/pkg/vectorstore"
)

func newTestSubsystem(t *testing.T) *Subsystem {
	t.Helper()
	keys, err := crypto.NewKeyManager([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	embedder := fakeEmbedder{}
	store := vectorstore.NewInMemory(embedder)

	return New(Config{
		DataDir:               t.TempDir(),
		KeyManager:            keys,
		VectorStore:           store,
		WorkingMemoryCapacity: 3,
	})
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return []float32{0, 0}, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestInitializeOnEmptyDataDirSucceeds(t *testing.T) {
	s := newTestSubsystem(t)
	err := s.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Episodic.Count())
	assert.Equal(t, 0, s.Procedural.Count())
}

func TestStoreInteractionAppendsEpisodicAndWorking(t *testing.T) {
	s := newTestSubsystem(t)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	err := s.StoreInteraction(ctx, "investigate suspicious network connection", "identified outbound exfiltration attempt", "incident-42")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Episodic.Count())
	assert.Len(t, s.Working.All(), 1)
}

func TestStoreInteractionExtractsConceptsIntoGraph(t *testing.T) {
	s := newTestSubsystem(t)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	require.NoError(t, s.StoreInteraction(ctx, "suspicious network connection detected", "outbound exfiltration attempt blocked", ""))

	nodes := s.Graph.Nodes()
	assert.NotEmpty(t, nodes)
	assert.LessOrEqual(t, len(nodes), 5)
}

func TestWorkingMemoryEvictsOldestBeyondCapacity(t *testing.T) {
	s := newTestSubsystem(t)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.StoreInteraction(ctx, "input", "output", ""))
	}
	assert.Len(t, s.Working.All(), 3)
}

func TestPersistThenInitializeRoundTripsEpisodicAndGraph(t *testing.T) {
	ctx := context.Background()
	keys, err := crypto.NewKeyManager([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	dir := t.TempDir()
	store := vectorstore.NewInMemory(fakeEmbedder{})

	s1 := New(Config{DataDir: dir, KeyManager: keys, VectorStore: store, WorkingMemoryCapacity: 3})
	require.NoError(t, s1.Initialize(ctx))
	require.NoError(t, s1.StoreInteraction(ctx, "phishing email campaign detected", "quarantined malicious attachment", "incident-7"))
	require.NoError(t, s1.Persist(ctx))

	s2 := New(Config{DataDir: dir, KeyManager: keys, VectorStore: store, WorkingMemoryCapacity: 3})
	require.NoError(t, s2.Initialize(ctx))

	assert.Equal(t, s1.Episodic.Count(), s2.Episodic.Count())
	assert.Equal(t, s1.Graph.Nodes(), s2.Graph.Nodes())
	assert.Equal(t, s1.Graph.Edges(), s2.Graph.Edges())
	assert.Empty(t, s2.Working.All())
}

func TestInitializeWithWrongKeyReturnsPersistenceCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := vectorstore.NewInMemory(fakeEmbedder{})

	keys1, err := crypto.NewKeyManager([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	s1 := New(Config{DataDir: dir, KeyManager: keys1, VectorStore: store, WorkingMemoryCapacity: 3})
	require.NoError(t, s1.Initialize(ctx))
	require.NoError(t, s1.StoreInteraction(ctx, "ransomware deployed on endpoint", "isolated host from network", ""))
	require.NoError(t, s1.Persist(ctx))

	keys2, err := crypto.NewKeyManager([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)
	s2 := New(Config{DataDir: dir, KeyManager: keys2, VectorStore: store, WorkingMemoryCapacity: 3})
	err = s2.Initialize(ctx)
	require.Error(t, err)
}

type fakeCacheSeeder struct {
	seeded bool
}

func (f *fakeCacheSeeder) Seed(fingerprint, output, context string, ts int64) { f.seeded = true }

func TestStoreInteractionSeedsWiredCache(t *testing.T) {
	s := newTestSubsystem(t)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	seeder := &fakeCacheSeeder{}
	s.SetCacheSeeder(seeder)
	require.NoError(t, s.StoreInteraction(ctx, "input", "output", ""))
	assert.True(t, seeder.seeded)
}

type fakeCacheLookup struct {
	value any
	ok    bool
}

func (f *fakeCacheLookup) Lookup(_ context.Context, _ string) (any, bool) { return f.value, f.ok }

func TestRetrieveRelevantReturnsCachedValueOnHit(t *testing.T) {
	s := newTestSubsystem(t)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))
	s.SetCacheLookup(&fakeCacheLookup{value: "cached answer", ok: true})

	result, err := s.RetrieveRelevant(ctx, "query", "fingerprint", 5)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, "cached answer", result.CachedValue)
}

func TestRetrieveRelevantFallsBackToSearchOnCacheMiss(t *testing.T) {
	s := newTestSubsystem(t)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))
	s.SetCacheLookup(&fakeCacheLookup{ok: false})
	require.NoError(t, s.StoreInteraction(ctx, "malware analysis report generated", "flagged polymorphic packer", ""))

	result, err := s.RetrieveRelevant(ctx, "malware analysis report", "fingerprint", 5)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
}

type fakeCachePersister struct {
	exported []models.CacheEntry
	imported []models.CacheEntry
}

func (f *fakeCachePersister) Export() []models.CacheEntry { return f.exported }
func (f *fakeCachePersister) Import(entries []models.CacheEntry) { f.imported = entries }

func TestPersistExportsCacheAndInitializeImportsIt(t *testing.T) {
	ctx := context.Background()
	keys, err := crypto.NewKeyManager([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	dir := t.TempDir()
	store := vectorstore.NewInMemory(fakeEmbedder{})

	s1 := New(Config{DataDir: dir, KeyManager: keys, VectorStore: store, WorkingMemoryCapacity: 3})
	require.NoError(t, s1.Initialize(ctx))
	persister1 := &fakeCachePersister{exported: []models.CacheEntry{{Fingerprint: "fp1", Response: "cached"}}}
	s1.SetCachePersister(persister1)
	require.NoError(t, s1.Persist(ctx))

	s2 := New(Config{DataDir: dir, KeyManager: keys, VectorStore: store, WorkingMemoryCapacity: 3})
	persister2 := &fakeCachePersister{}
	s2.SetCachePersister(persister2)
	require.NoError(t, s2.Initialize(ctx))

	require.Len(t, persister2.imported, 1)
	assert.Equal(t, "cached", persister2.imported[0].Response)
}

func TestSearchSimilarDeduplicatesByID(t *testing.T) {
	s := newTestSubsystem(t)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	require.NoError(t, s.Semantic.Upsert(ctx, "dup-id", "credential stuffing attack", nil))
	matches, err := s.SearchSimilar(ctx, "credential stuffing attack", 5)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, m := range matches {
		assert.False(t, seen[m.ID], "duplicate id %q in results", m.ID)
		seen[m.ID] = true
	}
}
