package core

import (
	"context"
	"time"

	"github.com/aegis-sec/aegis/pkg/bus"
	"github.com/aegis-sec/aegis/pkg/planner"
)

const defaultDepthBudget = 4

// Process runs the full request → plan → permission-gate → execute →
// memory-update → learn cycle (spec §4: "Control flow per user request").
func (c *Core) Process(ctx context.Context, input string, opts ProcessOptions) (ProcessResult, error) {
	start := time.Now()

	plan, err := c.buildPlan(ctx, input, defaultDepthBudget, opts.Strategy)
	if err != nil {
		return ProcessResult{}, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = "pro"
	}

	deps := planner.Deps{
		Reasoner: reasonerAdapter{gen: generatorAdapter{client: c.LLM}},
		Retrieve: retrieverAdapter{sub: c.Memory},
		Gate:     permissionGateAdapter{gate: c.Gate},
		Tools:    toolRunnerAdapter{runners: c.toolRunners},
		Mode:     mode,
		Approval: opts.ApprovalToken,
	}

	result := planner.Execute(ctx, plan, deps, c.cfg.Reasoning.MaxSteps, c.cfg.Reasoning.Timeout())

	var reasoning []string
	var toolCalls []ToolCallRecord
	var finalText string
	for _, step := range result.Steps {
		switch step.Kind {
		case planner.StepReason:
			reasoning = append(reasoning, step.Output)
			finalText = step.Output
		case planner.StepTool:
			rec := ToolCallRecord{Output: step.Output}
			if step.Err != nil {
				rec.Error = step.Err.Error()
			}
			toolCalls = append(toolCalls, rec)
		}
	}

	if err := c.Memory.StoreInteraction(ctx, input, finalText, mode); err != nil {
		reasoning = append(reasoning, "memory store failed: "+err.Error())
	}

	feedback := ""
	c.Learning.Record(ctx, time.Now().Unix(), input, finalText, feedback)

	out := ProcessResult{
		Text:      finalText,
		Reasoning: reasoning,
		ToolCalls: toolCalls,
		Performance: Performance{
			DurationMs: time.Since(start).Milliseconds(),
			StepCount:  len(result.Steps),
			Truncated:  result.Truncated,
		},
		MemorySnapshot: c.memorySnapshot(),
	}
	c.Bus.Publish(bus.TopicAgentResponse, out)
	return out, nil
}

func (c *Core) memorySnapshot() MemorySnapshot {
	return MemorySnapshot{
		EpisodicCount:   c.Memory.Episodic.Count(),
		ProceduralCount: c.Memory.Procedural.Count(),
		WorkingCount:    len(c.Memory.Working.All()),
	}
}

// buildPlan resolves strategy (auto-selecting when unset) and constructs
// the corresponding plan (spec §4.7).
func (c *Core) buildPlan(ctx context.Context, query string, depthBudget int, strategy planner.Strategy) (planner.Plan, error) {
	resolved := strategy
	if resolved == "" || resolved == planner.StrategyAuto {
		resolved = planner.SelectStrategy(query, depthBudget)
	}

	switch resolved {
	case planner.StrategyFirstPrinciple:
		return planner.BuildFirstPrinciples(query, depthBudget), nil
	case planner.StrategyEvolutionary:
		return c.buildEvolutionaryPlan(ctx, query, depthBudget)
	default:
		return planner.BuildZeroShot(query), nil
	}
}

// buildEvolutionaryPlan seeds the Darwin-Gödel search with a zero-shot and
// a first-principles candidate, scoring each by cosine similarity of its
// reasoning prompt's embedding against the query's own embedding (spec
// §4.7: "scores candidates by similarity to a target embedding").
func (c *Core) buildEvolutionaryPlan(ctx context.Context, query string, depthBudget int) (planner.Plan, error) {
	target, err := c.LLM.Embed(ctx, query)
	if err != nil {
		return planner.Plan{}, err
	}

	embedPlan := func(p planner.Plan) []float32 {
		prompt := query
		for _, s := range p.Steps {
			if s.Kind == planner.StepReason && s.Prompt != "" {
				prompt = s.Prompt
				break
			}
		}
		vec, err := c.LLM.Embed(ctx, prompt)
		if err != nil {
			return nil
		}
		return vec
	}

	mutate := func(p planner.Plan) planner.Plan {
		mutated := p
		mutated.Steps = append(append([]planner.Step(nil), p.Steps...), planner.Step{Kind: planner.StepVerify, OnFail: planner.OnFailContinue})
		return mutated
	}

	cfg := planner.EvolveConfig{
		N:           4,
		K:           2,
		Generations: 3,
		Epsilon:     0.01,
		Target:      target,
		Mutate:      mutate,
		EmbedPlan:   embedPlan,
		InitialSeeds: []planner.Plan{
			planner.BuildZeroShot(query),
			planner.BuildFirstPrinciples(query, depthBudget),
		},
	}
	return planner.BuildEvolutionary(cfg), nil
}
