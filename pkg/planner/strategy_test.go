package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategyFallsBackToZeroShot(t *testing.T) {
	assert.Equal(t, StrategyZeroShot, SelectStrategy("what is a reverse shell", 1))
}

func TestSelectStrategyPicksFirstPrinciplesForToolVerb(t *testing.T) {
	assert.Equal(t, StrategyFirstPrinciple, SelectStrategy("scan the host for open ports", 1))
}

func TestSelectStrategyPicksEvolutionaryForDeepBudgetAndVerb(t *testing.T) {
	assert.Equal(t, StrategyEvolutionary, SelectStrategy("run an exploit chain against the target", 4))
}

func TestSelectStrategyPicksFirstPrinciplesForLongQuery(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	assert.Equal(t, StrategyFirstPrinciple, SelectStrategy(string(long), 1))
}

func TestBuildZeroShotHasNoSubSteps(t *testing.T) {
	p := BuildZeroShot("hello")
	assert.Len(t, p.Steps, 1)
	assert.Equal(t, StepReason, p.Steps[0].Kind)
}

func TestBuildFirstPrinciplesEmitsRetrieveThenReasonVerifyChain(t *testing.T) {
	p := BuildFirstPrinciples("q", 2)
	assert.Equal(t, StepRetrieve, p.Steps[0].Kind)
	assert.Len(t, p.Steps, 1+2*2)
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, cosine(v, v), 1e-9)
}

func TestBuildEvolutionaryConvergesOnTargetAndBreaksTiesByInsertionOrder(t *testing.T) {
	target := []float32{1, 0}
	seeds := []Plan{
		{Strategy: StrategyZeroShot, Steps: []Step{{Kind: StepReason, Prompt: "a"}}},
		{Strategy: StrategyZeroShot, Steps: []Step{{Kind: StepReason, Prompt: "b"}}},
	}
	embeds := map[string][]float32{"a": {1, 0}, "b": {1, 0}}

	cfg := EvolveConfig{
		N: 2, K: 2, Generations: 3, Epsilon: 0.001,
		Target:       target,
		InitialSeeds: seeds,
		EmbedPlan: func(p Plan) []float32 {
			if len(p.Steps) > 0 {
				if v, ok := embeds[p.Steps[0].Prompt]; ok {
					return v
				}
			}
			return []float32{0, 1}
		},
	}

	champion := BuildEvolutionary(cfg)
	assert.Equal(t, StrategyEvolutionary, champion.Strategy)
	assert.Equal(t, "a", champion.Steps[0].Prompt)
}
