package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/planner"
)

// StartMission begins a learn-mode training scenario on topic, building a
// first-principles plan so the trainee walks through grounding
// retrievals before any reasoning step (spec §6's "learn-mode calls").
// There is no teacher or spec precedent for mission bookkeeping beyond
// the four call names this and the following three methods implement;
// built directly from spec text over the planner's existing plan/step
// model, run under the fixed "training" mode so every tool step resolves
// to simulationOnly (spec §4.8).
func (c *Core) StartMission(ctx context.Context, topic string) (Mission, error) {
	plan := planner.BuildFirstPrinciples(topic, 2)
	m := &Mission{
		ID:        uuid.NewString(),
		Topic:     topic,
		Plan:      plan,
		StartedAt: time.Now(),
	}
	c.missionsMu.Lock()
	c.missions[m.ID] = m
	c.missionsMu.Unlock()
	return *m, nil
}

// SubmitStep executes the mission's next step and advances its cursor.
func (c *Core) SubmitStep(ctx context.Context, missionID string) (MissionStep, error) {
	c.missionsMu.Lock()
	m, ok := c.missions[missionID]
	c.missionsMu.Unlock()
	if !ok {
		return MissionStep{}, coreerr.New(coreerr.ErrNotFound, "MISSION_NOT_FOUND", "no mission with id \""+missionID+"\"", "")
	}
	if m.Cursor >= len(m.Plan.Steps) {
		return MissionStep{MissionID: missionID, Index: m.Cursor, Done: true}, nil
	}

	step := m.Plan.Steps[m.Cursor]
	singleStepPlan := planner.Plan{Strategy: m.Plan.Strategy, Steps: []planner.Step{step}}

	deps := planner.Deps{
		Reasoner: reasonerAdapter{gen: generatorAdapter{client: c.LLM}},
		Retrieve: retrieverAdapter{sub: c.Memory},
		Gate:     permissionGateAdapter{gate: c.Gate},
		Tools:    toolRunnerAdapter{runners: c.toolRunners},
		Mode:     "training",
	}
	result := planner.Execute(ctx, singleStepPlan, deps, 1, c.cfg.Reasoning.Timeout())

	output := ""
	if len(result.Steps) > 0 {
		output = result.Steps[0].Output
	}

	m.Cursor++
	return MissionStep{
		MissionID: missionID,
		Index:     m.Cursor - 1,
		Output:    output,
		Done:      m.Cursor >= len(m.Plan.Steps),
	}, nil
}

// ProvideFeedback records trainee feedback against the last interaction,
// feeding the feedback/learning loop (C11, spec §4.11).
func (c *Core) ProvideFeedback(ctx context.Context, missionID, input, response, feedback string) {
	c.Learning.Record(ctx, time.Now().Unix(), input, response, feedback)
}

// ExplainConcept looks up a concept graph node by label and asks the LLM
// to expand on it, naming the labels of the node's neighbors as related
// concepts. The node's properties are not included in the prompt.
func (c *Core) ExplainConcept(ctx context.Context, label string) (string, error) {
	var nodeID string
	for _, n := range c.Memory.Graph.Nodes() {
		if n.Label == label {
			nodeID = n.ID
			break
		}
	}
	if nodeID == "" {
		return "", coreerr.New(coreerr.ErrNotFound, "CONCEPT_NOT_FOUND", "no concept graph node labeled \""+label+"\"", "")
	}

	neighbors := c.Memory.Graph.Neighbors(nodeID)
	prompt := "Explain the concept \"" + label + "\" for a cybersecurity trainee."
	if len(neighbors) > 0 {
		prompt += " Related concepts: "
		for i, id := range neighbors {
			if n, ok := c.Memory.Graph.Node(id); ok {
				if i > 0 {
					prompt += ", "
				}
				prompt += n.Label
			}
		}
		prompt += "."
	}

	resp, err := c.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
