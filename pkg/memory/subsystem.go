// Package memory implements the core's memory subsystem (C4): four typed
// stores (semantic, episodic, procedural, working) plus a concept graph,
// composed over the pluggable vector store (C3) with encrypted persistence
// (C2) for everything but working memory and the vector backend itself
// (spec §3/§4.4).
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-sec/aegis/pkg/bus"
	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/crypto"
	"github.com/aegis-sec/aegis/pkg/models"
	"github.com/aegis-sec/aegis/pkg/vectorstore"
)

// storeFile names under dataDir/memory (spec §6). Semantic memory has no
// file of its own — see semantic.go.
const (
	episodicFile     = "episodic.json"
	proceduralFile   = "procedural.json"
	conceptGraphFile = "conceptGraph.json"
	cacheFile        = "cache.json"
)

// CacheSeeder lets an external CAG cache (C5) be seeded by storeInteraction
// without pkg/memory importing pkg/cag. Implemented by *cag.Cache.
type CacheSeeder interface {
	Seed(fingerprint, output, context string, ts int64)
}

// CacheLookup lets retrieveRelevant consult the CAG cache before falling
// back to a similarity search, again without an import cycle.
type CacheLookup interface {
	Lookup(ctx context.Context, fingerprint string) (value any, ok bool)
}

// CachePersister lets the CAG cache (C5) be snapshotted into and reloaded
// from dataDir/memory/cache.json alongside the other three stores (spec
// §4.4 "persist() snapshots all four stores + concept graph + CAG
// serialization", spec §6 file layout). Implemented by *cag.Cache.
type CachePersister interface {
	Export() []models.CacheEntry
	Import(entries []models.CacheEntry)
}

// Subsystem owns the four typed stores and the concept graph exclusively;
// every other component reads through its exported methods (spec §4.4).
type Subsystem struct {
	Episodic   *EpisodicStore
	Procedural *ProceduralStore
	Working    *WorkingMemory
	Semantic   *SemanticStore
	Graph      *ConceptGraph

	keys    *crypto.KeyManager
	dataDir string
	bus     *bus.Bus

	mu             sync.Mutex // serializes Initialize / Persist
	cacheSeeder    CacheSeeder
	cacheLookup    CacheLookup
	cachePersister CachePersister
}

// Config bundles Subsystem's construction-time dependencies.
type Config struct {
	DataDir               string
	KeyManager            *crypto.KeyManager
	VectorStore           vectorstore.Store
	WorkingMemoryCapacity int
	Bus                   *bus.Bus
}

// New builds a Subsystem. Call Initialize before using it.
func New(cfg Config) *Subsystem {
	return &Subsystem{
		Episodic:   NewEpisodicStore(),
		Procedural: NewProceduralStore(),
		Working:    NewWorkingMemory(cfg.WorkingMemoryCapacity),
		Semantic:   NewSemanticStore(cfg.VectorStore),
		Graph:      NewConceptGraph(),
		keys:       cfg.KeyManager,
		dataDir:    cfg.DataDir,
		bus:        cfg.Bus,
	}
}

// SetCacheSeeder wires the CAG cache so storeInteraction can seed it.
func (s *Subsystem) SetCacheSeeder(seeder CacheSeeder) { s.cacheSeeder = seeder }

// SetCacheLookup wires the CAG cache so retrieveRelevant can consult it.
func (s *Subsystem) SetCacheLookup(lookup CacheLookup) { s.cacheLookup = lookup }

// SetCachePersister wires the CAG cache into the Initialize/Persist cycle so
// cache.json is reloaded on startup and snapshotted on every persist.
func (s *Subsystem) SetCachePersister(persister CachePersister) { s.cachePersister = persister }

// Initialize loads every persistent store, aborting on any decryption
// failure (spec §4.4). Safe to call more than once: each call reloads from
// disk and replaces the in-memory stores, so repeated calls observe
// identical state (spec §8 property 4) as long as nothing else has
// mutated the stores in between.
func (s *Subsystem) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	episodic, err := loadStore[[]models.EpisodicRecord](s, episodicFile)
	if err != nil {
		return err
	}
	if episodic != nil {
		s.Episodic.LoadAll(*episodic)
	}

	procedural, err := loadStore[[]models.ProceduralArtifact](s, proceduralFile)
	if err != nil {
		return err
	}
	if procedural != nil {
		s.Procedural.LoadAll(*procedural)
	}

	type graphPayload struct {
		Nodes []models.GraphNode `json:"nodes"`
		Edges []models.GraphEdge `json:"edges"`
	}
	graph, err := loadStore[graphPayload](s, conceptGraphFile)
	if err != nil {
		return err
	}
	if graph != nil {
		s.Graph.LoadAll(graph.Nodes, graph.Edges)
	}

	if s.cachePersister != nil {
		cache, err := loadStore[[]models.CacheEntry](s, cacheFile)
		if err != nil {
			return err
		}
		if cache != nil {
			s.cachePersister.Import(*cache)
		}
	}

	s.Working.Clear()
	return nil
}

// loadStore reads and decrypts storeFile under dataDir/memory, returning
// nil (not an error) when the file has never been written.
func loadStore[T any](s *Subsystem, storeFile string) (*T, error) {
	path := s.storePath(storeFile)
	env, exists, err := crypto.ReadEnvelope(path)
	if err != nil {
		return nil, fmt.Errorf("memory: reading %s: %w", storeFile, err)
	}
	if !exists {
		return nil, nil
	}

	key, err := s.keys.DeriveStoreKey(storeFile)
	if err != nil {
		return nil, fmt.Errorf("memory: deriving key for %s: %w", storeFile, err)
	}

	var payload T
	if err := crypto.OpenJSON(key, env, &payload); err != nil {
		return nil, coreerr.Wrap(coreerr.ErrPersistenceCorrupt, "STORE_CORRUPT", "", fmt.Errorf("%s: %w", storeFile, err))
	}
	return &payload, nil
}

func (s *Subsystem) storePath(storeFile string) string {
	return s.dataDir + "/memory/" + storeFile
}

// StoreInteraction appends to episodic memory, extracts concept phrases
// into the semantic store and concept graph, pushes into working memory,
// and seeds the CAG cache if one is wired (spec §4.4).
func (s *Subsystem) StoreInteraction(ctx context.Context, input, output, interactionContext string) error {
	key := uuid.NewString()
	ts := time.Now().UnixNano()

	s.Episodic.Append(models.EpisodicRecord{Key: key, Input: input, Output: output, Context: interactionContext, Ts: ts})

	phrases := extractConceptPhrases(input + " " + output)
	for _, phrase := range phrases {
		nodeID := s.Graph.AddNode(models.GraphNode{Label: phrase, Type: "concept"})
		if err := s.Semantic.Upsert(ctx, nodeID, phrase, map[string]string{"source": key}); err != nil {
			return fmt.Errorf("memory: upserting concept %q: %w", phrase, err)
		}
	}

	s.Working.Push(models.MemoryItem{
		Key:       key,
		Content:   models.NewString(output),
		Timestamp: ts,
	})

	if s.cacheSeeder != nil {
		s.cacheSeeder.Seed(fingerprint(input), output, interactionContext, ts)
	}

	if s.bus != nil {
		s.bus.Publish(bus.TopicMemoryUpdate, key)
	}
	return nil
}

// SearchSimilar returns the top limit semantic-store hits for query,
// deduplicated by id and ranked by score descending.
func (s *Subsystem) SearchSimilar(ctx context.Context, query string, limit int) ([]vectorstore.Match, error) {
	matches, err := s.Semantic.SearchSimilar(ctx, query, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("memory: searching similar: %w", err)
	}
	seen := make(map[string]bool, len(matches))
	out := make([]vectorstore.Match, 0, len(matches))
	for _, m := range matches {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out, nil
}

// RetrieveResult is returned by RetrieveRelevant.
type RetrieveResult struct {
	Memories    []vectorstore.Match
	FromCache   bool
	CachedValue any
}

// RetrieveRelevant is the cache-checked variant of SearchSimilar (spec
// §4.4). queryFingerprint is supplied by the caller (the retrieval
// pipeline, C6) rather than recomputed here, since normalization is that
// pipeline's concern, not the memory subsystem's.
func (s *Subsystem) RetrieveRelevant(ctx context.Context, query, queryFingerprint string, limit int) (RetrieveResult, error) {
	if s.cacheLookup != nil {
		if value, ok := s.cacheLookup.Lookup(ctx, queryFingerprint); ok {
			return RetrieveResult{FromCache: true, CachedValue: value}, nil
		}
	}
	matches, err := s.SearchSimilar(ctx, query, limit)
	if err != nil {
		return RetrieveResult{}, err
	}
	return RetrieveResult{Memories: matches}, nil
}

// Persist snapshots episodic, procedural, concept-graph, and CAG cache
// state concurrently, completing only once every write has been fsynced
// (spec §4.4). The semantic/vector store persists itself.
func (s *Subsystem) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type job struct {
		file string
		fn   func() error
	}
	jobs := []job{
		{episodicFile, func() error { return s.saveStore(episodicFile, s.Episodic.All()) }},
		{proceduralFile, func() error { return s.saveStore(proceduralFile, s.Procedural.All()) }},
		{conceptGraphFile, func() error {
			payload := struct {
				Nodes []models.GraphNode `json:"nodes"`
				Edges []models.GraphEdge `json:"edges"`
			}{s.Graph.Nodes(), s.Graph.Edges()}
			return s.saveStore(conceptGraphFile, payload)
		}},
	}
	if s.cachePersister != nil {
		jobs = append(jobs, job{cacheFile, func() error { return s.saveStore(cacheFile, s.cachePersister.Export()) }})
	}

	var wg sync.WaitGroup
	errs := make([]error, len(jobs))
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			errs[i] = j.fn()
		}(i, j)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("memory: persisting %s: %w", jobs[i].file, err)
		}
	}
	return nil
}

func (s *Subsystem) saveStore(storeFile string, payload any) error {
	key, err := s.keys.DeriveStoreKey(storeFile)
	if err != nil {
		return fmt.Errorf("deriving key: %w", err)
	}
	env, err := crypto.SealJSON(key, payload)
	if err != nil {
		return fmt.Errorf("sealing: %w", err)
	}
	if err := crypto.WriteEnvelopeAtomic(s.storePath(storeFile), env); err != nil {
		return fmt.Errorf("writing: %w", err)
	}
	return nil
}
