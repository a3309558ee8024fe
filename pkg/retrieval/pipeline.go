// Package retrieval implements the Retrieval & Generation Pipeline (C6,
// spec §4.6): cache-first lookup, parallel memory/catalog retrieval,
// augmented-prompt construction, rate-limited/circuit-broken generation,
// and the fallback ladder on backend failure. Grounded on
// codeready-toolchain-tarsy/pkg/agent/controller/iterating.go's
// retrieve-then-generate ordering and pkg/queue/executor.go's
// backend-call-under-guard envelope shape.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aegis-sec/aegis/pkg/bus"
	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/ratelimit"
	"github.com/aegis-sec/aegis/pkg/vectorstore"
)

// Cache is the narrow view of *cag.Cache the pipeline consumes
// structurally.
type Cache interface {
	LookupFull(ctx context.Context, fingerprint, queryText string) (CacheHit, bool)
	Insert(fingerprint, queryText string, queryEmbedding []float32, response string, sources []string, confidence float64)
	SingleFlight(fingerprint string, fn func() (CacheHit, error)) (CacheHit, error)
}

// CacheHit mirrors cag.Hit's shape without importing pkg/cag.
type CacheHit struct {
	Response   string
	Sources    []string
	Confidence float64
	Score      float64
	Type       string // "exact" | "semantic"
}

// MemoryRetriever is the narrow view of *memory.Subsystem the pipeline
// consumes structurally.
type MemoryRetriever interface {
	RetrieveRelevant(ctx context.Context, query, queryFingerprint string, limit int) ([]vectorstore.Match, error)
}

// Generator is the narrow view of *llm.Client the pipeline consumes
// structurally.
type Generator interface {
	Generate(ctx context.Context, prompt string) (text string, tokensUsed int, err error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Guard bundles the resource guards C6 calls the generator under (spec
// §4.6 step 5: "under C9 rate limiter and C9 circuit breaker").
type Guard interface {
	Consume(ctx context.Context, n int) error
	Call(fn func() error) error
}

// Options mirror spec §4.6's per-call options.
type Options struct {
	UseCache   bool
	Debug      bool
	Category   string
	Difficulty string
	K          int
}

// Result is returned by Process.
type Result struct {
	Answer     string
	Cached     bool
	HitType    string
	Confidence float64
}

const (
	defaultMaxContextChars  = 4000
	semanticFallbackMinimum = 0.95
)

// Pipeline wires the collaborators C6 needs.
type Pipeline struct {
	Cache           Cache
	Memory          MemoryRetriever
	Catalog         ConceptGraph
	Generator       Generator
	Guard           Guard
	Bus             *bus.Bus
	MaxContextChars int
}

// Process runs the full pipeline for query under opts (spec §4.6).
func (p *Pipeline) Process(ctx context.Context, query string, opts Options) (Result, error) {
	fp := fingerprint(query, opts)

	if opts.UseCache && !opts.Debug {
		if hit, ok := p.Cache.LookupFull(ctx, fp, query); ok {
			return Result{Answer: hit.Response, Cached: true, HitType: hit.Type, Confidence: hit.Confidence}, nil
		}
	}

	memMatches, catalogNodes := p.retrieveParallel(ctx, query, opts)

	maxChars := p.MaxContextChars
	if maxChars <= 0 {
		maxChars = defaultMaxContextChars
	}
	prompt := buildPrompt(query, memMatches, catalogNodes, maxChars)

	text, tokensUsed, genErr := p.generate(ctx, prompt)
	if genErr != nil {
		return p.fallback(ctx, fp, query, genErr)
	}

	confidence := deriveConfidence(topScore(memMatches), text, tokensUsed)
	sources := sourcesOf(memMatches)

	var embedding []float32
	if e, err := p.Generator.Embed(ctx, query); err == nil {
		embedding = e
	}
	p.Cache.Insert(fp, query, embedding, text, sources, confidence)

	if p.Bus != nil {
		p.Bus.Publish(bus.TopicAgentResponse, map[string]any{"query": query, "cached": false, "confidence": confidence})
	}

	return Result{Answer: text, Cached: false, Confidence: confidence}, nil
}

func (p *Pipeline) retrieveParallel(ctx context.Context, query string, opts Options) ([]vectorstore.Match, []string) {
	var wg sync.WaitGroup
	var memMatches []vectorstore.Match
	var catalogLabels []string

	k := opts.K
	if k <= 0 {
		k = 5
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if p.Memory == nil {
			return
		}
		matches, err := p.Memory.RetrieveRelevant(ctx, query, fingerprint(query, opts), k)
		if err == nil {
			memMatches = matches
		}
	}()
	go func() {
		defer wg.Done()
		nodes := LookupCatalog(p.Catalog, query, CatalogFilter{Category: opts.Category, Difficulty: opts.Difficulty})
		for _, n := range nodes {
			catalogLabels = append(catalogLabels, n.Label)
		}
	}()
	wg.Wait()

	return memMatches, catalogLabels
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, int, error) {
	if p.Guard != nil {
		if err := p.Guard.Consume(ctx, 1); err != nil {
			return "", 0, err
		}
	}

	var text string
	var tokens int
	call := func() error {
		t, tok, err := p.Generator.Generate(ctx, prompt)
		text, tokens = t, tok
		return err
	}

	err := ratelimit.Retry(ctx, ratelimit.DefaultBackoff, coreerr.Retryable, func(context.Context) error {
		if p.Guard != nil {
			return p.Guard.Call(call)
		}
		return call()
	})
	return text, tokens, err
}

// fallback implements spec §4.6's ladder: exact-cache hit, then
// semantic-cache hit scoring ≥ 0.95, then a typed GenerationUnavailable.
func (p *Pipeline) fallback(ctx context.Context, fp, query string, cause error) (Result, error) {
	if hit, ok := p.Cache.LookupFull(ctx, fp, query); ok && hit.Type == "exact" {
		return Result{Answer: hit.Response, Cached: true, HitType: hit.Type, Confidence: hit.Confidence}, nil
	}
	if hit, ok := p.Cache.LookupFull(ctx, fp, query); ok && hit.Type == "semantic" && hit.Score >= semanticFallbackMinimum {
		return Result{Answer: hit.Response, Cached: true, HitType: hit.Type, Confidence: hit.Confidence}, nil
	}
	return Result{}, coreerr.Wrap(coreerr.ErrGenerationUnavailable, "GENERATION_UNAVAILABLE", "", cause)
}

func topScore(matches []vectorstore.Match) float64 {
	best := 0.0
	for _, m := range matches {
		if m.Score > best {
			best = m.Score
		}
	}
	return best
}

func sourcesOf(matches []vectorstore.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.ID)
	}
	return out
}

// deriveConfidence combines the top retrieval score with an LLM-reported
// length/non-error signal: 0.5*topRetrievalScore + 0.5*lengthSignal, where
// lengthSignal saturates at 1.0 for responses of 200+ characters and is 0
// for an empty response (Open Question resolution: the exact weighting
// and saturation point).
func deriveConfidence(topRetrievalScore float64, text string, tokensUsed int) float64 {
	if text == "" {
		return 0
	}
	lengthSignal := float64(len(text)) / 200.0
	if lengthSignal > 1 {
		lengthSignal = 1
	}
	return 0.5*topRetrievalScore + 0.5*lengthSignal
}

// buildPrompt constructs the augmented prompt: a system preamble, ranked
// snippets (memory matches by score, then catalog labels), bounded by
// maxContextChars, then the user query (spec §4.6 step 4).
func buildPrompt(query string, matches []vectorstore.Match, catalogLabels []string, maxContextChars int) string {
	sorted := make([]vectorstore.Match, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var sb strings.Builder
	sb.WriteString("You are a cybersecurity assistant. Use the following context if relevant.\n\n")

	budget := maxContextChars
	for _, m := range sorted {
		line := fmt.Sprintf("- %s\n", m.Text)
		if len(line) > budget {
			break
		}
		sb.WriteString(line)
		budget -= len(line)
	}
	for _, label := range catalogLabels {
		line := fmt.Sprintf("- concept: %s\n", label)
		if len(line) > budget {
			break
		}
		sb.WriteString(line)
		budget -= len(line)
	}

	sb.WriteString("\nQuery: ")
	sb.WriteString(query)
	return sb.String()
}
