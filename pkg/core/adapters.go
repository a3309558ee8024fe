package core

import (
	"context"

	"github.com/aegis-sec/aegis/pkg/cag"
	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/llm"
	"github.com/aegis-sec/aegis/pkg/memory"
	"github.com/aegis-sec/aegis/pkg/models"
	"github.com/aegis-sec/aegis/pkg/ratelimit"
	"github.com/aegis-sec/aegis/pkg/retrieval"
	"github.com/aegis-sec/aegis/pkg/tools"
	"github.com/aegis-sec/aegis/pkg/vectorstore"
)

// memoryRetrieverAdapter narrows *memory.Subsystem's RetrieveRelevant
// (which returns a memory.RetrieveResult to distinguish a CAG cache hit
// from a fresh similarity search) down to the plain
// ([]vectorstore.Match, error) shape retrieval.Pipeline consumes
// structurally. A cache hit carrying a non-match CachedValue degrades to
// an empty match slice — the pipeline's own cache lookup already covers
// that case before it ever reaches the memory retriever.
type memoryRetrieverAdapter struct {
	sub *memory.Subsystem
}

func (a memoryRetrieverAdapter) RetrieveRelevant(ctx context.Context, query, queryFingerprint string, limit int) ([]vectorstore.Match, error) {
	result, err := a.sub.RetrieveRelevant(ctx, query, queryFingerprint, limit)
	if err != nil {
		return nil, err
	}
	return result.Memories, nil
}

// generatorAdapter narrows *llm.Client's Generate (which returns an
// llm.GenerateResponse struct) down to retrieval.Generator's
// (text, tokensUsed, error) shape.
type generatorAdapter struct {
	client *llm.Client
}

func (a generatorAdapter) Generate(ctx context.Context, prompt string) (string, int, error) {
	resp, err := a.client.Generate(ctx, prompt)
	if err != nil {
		return "", 0, err
	}
	return resp.Text, resp.TokensUsed, nil
}

func (a generatorAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.client.Embed(ctx, text)
}

// permissionGateAdapter narrows *tools.Gate's Resolve (which takes a
// typed tools.Mode and returns a tools.Decision struct) down to
// planner.PermissionGate's (string mode) -> (allow, simulationOnly, err)
// shape, so the planner package never needs to import pkg/tools.
type permissionGateAdapter struct {
	gate *tools.Gate
}

func (a permissionGateAdapter) Resolve(name, mode, approvalToken string) (bool, bool, error) {
	dec, err := a.gate.Resolve(name, tools.Mode(mode), approvalToken)
	return dec.Allow, dec.SimulationOnly, err
}

// guardAdapter composes a token bucket and a circuit breaker into the
// single Consume+Call shape retrieval.Guard expects, since pkg/ratelimit
// keeps those two concerns as independent types (spec §4.9) rather than
// one combined "guard" type.
type guardAdapter struct {
	bucket  *ratelimit.Bucket
	breaker *ratelimit.Breaker
}

func (g guardAdapter) Consume(ctx context.Context, n int) error {
	return g.bucket.Consume(ctx, n)
}

func (g guardAdapter) Call(fn func() error) error {
	return g.breaker.Call(fn)
}

// cacheAdapter narrows *cag.Cache's Hit-returning methods down to
// retrieval.Cache's CacheHit shape, since pkg/cag and pkg/retrieval each
// define their own hit struct to stay independently groundable.
type cacheAdapter struct {
	cache *cag.Cache
}

func cacheHitOf(h cag.Hit) retrieval.CacheHit {
	return retrieval.CacheHit{
		Response:   h.Entry.Response,
		Sources:    h.Entry.Sources,
		Confidence: h.Entry.Confidence,
		Score:      h.Score,
		Type:       string(h.Type),
	}
}

func (a cacheAdapter) LookupFull(ctx context.Context, fingerprint, queryText string) (retrieval.CacheHit, bool) {
	hit, ok := a.cache.LookupFull(ctx, fingerprint, queryText)
	return cacheHitOf(hit), ok
}

func (a cacheAdapter) Insert(fingerprint, queryText string, queryEmbedding []float32, response string, sources []string, confidence float64) {
	a.cache.Insert(fingerprint, queryText, queryEmbedding, response, sources, confidence)
}

func (a cacheAdapter) SingleFlight(fingerprint string, fn func() (retrieval.CacheHit, error)) (retrieval.CacheHit, error) {
	hit, err := a.cache.SingleFlight(fingerprint, func() (cag.Hit, error) {
		h, err := fn()
		return cag.Hit{
			Entry: models.CacheEntry{Response: h.Response, Sources: h.Sources, Confidence: h.Confidence},
			Type:  cag.HitType(h.Type),
			Score: h.Score,
		}, err
	})
	return cacheHitOf(hit), err
}

// reasonerAdapter narrows generatorAdapter down to planner.Reasoner's
// (string, error) shape, dropping the token count the planner has no use
// for.
type reasonerAdapter struct {
	gen generatorAdapter
}

func (r reasonerAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	text, _, err := r.gen.Generate(ctx, prompt)
	return text, err
}

// retrieverAdapter narrows *memory.Subsystem's SearchSimilar down to
// planner.Retriever's ([]string, error) shape: the planner only needs the
// matched snippet text, not score/ID metadata.
type retrieverAdapter struct {
	sub *memory.Subsystem
}

func (r retrieverAdapter) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	matches, err := r.sub.SearchSimilar(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Text
	}
	return out, nil
}

// toolRunnerAdapter adapts the registered built-in tool functions into
// planner.ToolRunner.
type toolRunnerAdapter struct {
	runners map[string]func(ctx context.Context, args map[string]any) (string, error)
}

func (t toolRunnerAdapter) RunTool(ctx context.Context, name string, args map[string]any) (string, error) {
	fn, ok := t.runners[name]
	if !ok {
		return "", coreerr.New(coreerr.ErrNotFound, "TOOL_RUNNER_MISSING", "no runner registered for tool \""+name+"\"", "")
	}
	return fn(ctx, args)
}
