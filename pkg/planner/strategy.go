package planner

import (
	"math"
	"sort"
	"strings"
)

// toolVerbs are lower-cased indicators that a query is asking for an
// action against a tool rather than pure discussion (spec §4.7's
// "presence of tool-like verbs").
var toolVerbs = []string{"scan", "run", "execute", "exploit", "enumerate", "brute", "crack", "probe", "fuzz"}

// SelectStrategy implements the auto-selection heuristic (spec §4.7):
// short queries with no tool-like verb and a shallow depth budget fall
// back to zero-shot; longer queries or an explicit tool verb favor
// first-principles; a generous depth budget with a tool verb favors
// evolutionary exploration. Ambiguous cases default to zero-shot.
func SelectStrategy(query string, depthBudget int) Strategy {
	lower := strings.ToLower(query)
	hasVerb := false
	for _, v := range toolVerbs {
		if strings.Contains(lower, v) {
			hasVerb = true
			break
		}
	}

	switch {
	case hasVerb && depthBudget >= 4:
		return StrategyEvolutionary
	case hasVerb || len(query) > 160:
		return StrategyFirstPrinciple
	default:
		return StrategyZeroShot
	}
}

// resolve turns StrategyAuto into a concrete strategy using the query and
// depth budget; any other value passes through unchanged (explicit caller
// override, spec §4.7).
func resolve(s Strategy, query string, depthBudget int) Strategy {
	if s == StrategyAuto {
		return SelectStrategy(query, depthBudget)
	}
	return s
}

// BuildZeroShot produces the single-prompt plan: no sub-steps.
func BuildZeroShot(query string) Plan {
	return Plan{
		Strategy: StrategyZeroShot,
		Steps:    []Step{{Kind: StepReason, Prompt: query, StrategyHint: StrategyZeroShot}},
	}
}

// BuildFirstPrinciples decomposes the query into axioms (Retrieve steps
// gathering grounding facts) followed by a linear Reason+Verify chain
// (spec §4.7: "decomposes the query into axioms + derivations, emits a
// linear chain of Reason+Verify").
func BuildFirstPrinciples(query string, depth int) Plan {
	if depth < 1 {
		depth = 1
	}
	steps := []Step{{Kind: StepRetrieve, Query: query, K: 3}}
	for i := 0; i < depth; i++ {
		steps = append(steps,
			Step{Kind: StepReason, Prompt: query, StrategyHint: StrategyFirstPrinciple},
			Step{Kind: StepVerify, OnFail: OnFailContinue},
		)
	}
	return Plan{Strategy: StrategyFirstPrinciple, Steps: steps}
}

// Candidate is one member of an evolutionary generation: a partial plan
// plus its representative embedding (used for fitness scoring).
type Candidate struct {
	Plan      Plan
	Embedding []float32
}

// cosine computes cosine similarity. Uses the straightforward
// (non-loop-unrolled) accumulation; spec §4.7 requires this be numerically
// equivalent to any fused/unrolled variant, so callers MUST NOT rely on
// floating-point associativity differences between implementations.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
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

// EvolveConfig bounds the evolutionary search (spec §4.7): N candidates
// per generation, mutate the top K, run for up to G generations or until
// fitness plateaus (improvement < epsilon for two consecutive rounds).
type EvolveConfig struct {
	N            int
	K            int
	Generations  int
	Epsilon      float64
	Target       []float32
	Mutate       func(Plan) Plan
	EmbedPlan    func(Plan) []float32
	InitialSeeds []Plan
}

// BuildEvolutionary runs the Darwin-Gödel style search: score each
// candidate by cosine similarity against cfg.Target, keep and mutate the
// top K, and stop early once the best fitness stops improving by at least
// epsilon for two consecutive generations. Ties in fitness are broken by
// insertion order (spec §4.7 invariant), which sort.SliceStable preserves.
func BuildEvolutionary(cfg EvolveConfig) Plan {
	if cfg.N <= 0 {
		cfg.N = 1
	}
	if cfg.K <= 0 || cfg.K > cfg.N {
		cfg.K = cfg.N
	}
	if cfg.Generations <= 0 {
		cfg.Generations = 1
	}

	population := make([]Candidate, 0, cfg.N)
	for _, seed := range cfg.InitialSeeds {
		population = append(population, Candidate{Plan: seed, Embedding: cfg.EmbedPlan(seed)})
	}
	for len(population) < cfg.N {
		base := StrategyZeroShot
		p := Plan{Strategy: base, Steps: []Step{{Kind: StepReason, StrategyHint: StrategyEvolutionary}}}
		population = append(population, Candidate{Plan: p, Embedding: cfg.EmbedPlan(p)})
	}

	bestFitness := math.Inf(-1)
	plateauRounds := 0

	var champion Plan
	for gen := 0; gen < cfg.Generations; gen++ {
		scored := make([]struct {
			c       Candidate
			fitness float64
		}, len(population))
		for i, c := range population {
			scored[i].c = c
			scored[i].fitness = cosine(c.Embedding, cfg.Target)
		}
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].fitness > scored[j].fitness })

		champion = scored[0].c.Plan
		gain := scored[0].fitness - bestFitness
		if scored[0].fitness > bestFitness {
			bestFitness = scored[0].fitness
		}
		if gain < cfg.Epsilon {
			plateauRounds++
			if plateauRounds >= 2 {
				break
			}
		} else {
			plateauRounds = 0
		}

		top := scored
		if len(top) > cfg.K {
			top = top[:cfg.K]
		}

		next := make([]Candidate, 0, cfg.N)
		for _, s := range top {
			next = append(next, s.c)
			if cfg.Mutate != nil {
				mutated := cfg.Mutate(s.c.Plan)
				next = append(next, Candidate{Plan: mutated, Embedding: cfg.EmbedPlan(mutated)})
			}
		}
		for len(next) < cfg.N && len(top) > 0 {
			next = append(next, top[len(next)%len(top)].c)
		}
		population = next[:cfg.N]
	}

	champion.Strategy = StrategyEvolutionary
	return champion
}
