package planner

import (
	"context"
	"testing"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReasoner struct{ out string }

func (f fakeReasoner) Generate(ctx context.Context, prompt string) (string, error) { return f.out, nil }

type fakeRetriever struct{ hits []string }

func (f fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	return f.hits, nil
}

type fakeGate struct {
	allow          bool
	simulationOnly bool
	err            error
}

func (g fakeGate) Resolve(name string, mode string, token string) (bool, bool, error) {
	return g.allow, g.simulationOnly, g.err
}

type fakeToolRunner struct {
	called bool
	out    string
}

func (r *fakeToolRunner) RunTool(ctx context.Context, name string, args map[string]any) (string, error) {
	r.called = true
	return r.out, nil
}

func TestExecuteZeroShotReasonStep(t *testing.T) {
	plan := BuildZeroShot("do the thing")
	deps := Deps{Reasoner: fakeReasoner{out: "answer"}}

	res := Execute(context.Background(), plan, deps, 8, time.Second)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "answer", res.Steps[0].Output)
	assert.False(t, res.Truncated)
}

func TestExecuteRealToolCallsRunner(t *testing.T) {
	runner := &fakeToolRunner{out: "real output"}
	plan := Plan{Steps: []Step{{Kind: StepTool, ToolName: "nmap", Mode: ToolModeReal}}}
	deps := Deps{Gate: fakeGate{allow: true}, Tools: runner}

	res := Execute(context.Background(), plan, deps, 8, time.Second)
	require.Len(t, res.Steps, 1)
	assert.True(t, runner.called)
	assert.Equal(t, "real output", res.Steps[0].Output)
}

func TestExecuteSimulatedToolNeverCallsRunner(t *testing.T) {
	runner := &fakeToolRunner{out: "should not see this"}
	plan := Plan{Steps: []Step{{Kind: StepTool, ToolName: "nmap", Mode: ToolModeReal}}}
	deps := Deps{Gate: fakeGate{allow: true, simulationOnly: true}, Tools: runner}

	res := Execute(context.Background(), plan, deps, 8, time.Second)
	require.Len(t, res.Steps, 1)
	assert.False(t, runner.called)
	assert.Equal(t, "[SIMULATED OUTPUT for nmap]", res.Steps[0].Output)
}

func TestExecuteDeniedToolAbortsPlanWithoutContinueVerify(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Kind: StepTool, ToolName: "nmap"},
		{Kind: StepReason, Prompt: "never reached"},
	}}
	deps := Deps{Gate: fakeGate{err: coreerr.New(coreerr.ErrToolNotPermitted, "X", "denied", "")}, Reasoner: fakeReasoner{out: "x"}}

	res := Execute(context.Background(), plan, deps, 8, time.Second)
	require.Len(t, res.Steps, 1)
	assert.Error(t, res.Steps[0].Err)
}

func TestExecuteDeniedToolContinuesWhenVerifyAllows(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Kind: StepTool, ToolName: "nmap"},
		{Kind: StepVerify, OnFail: OnFailContinue},
		{Kind: StepReason, Prompt: "still reached"},
	}}
	deps := Deps{Gate: fakeGate{err: coreerr.New(coreerr.ErrToolNotPermitted, "X", "denied", "")}, Reasoner: fakeReasoner{out: "x"}}

	res := Execute(context.Background(), plan, deps, 8, time.Second)
	require.Len(t, res.Steps, 3)
	assert.Error(t, res.Steps[0].Err)
	assert.NoError(t, res.Steps[2].Err)
}

func TestExecuteTruncatesAtMaxSteps(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Kind: StepReason, Prompt: "1"},
		{Kind: StepReason, Prompt: "2"},
		{Kind: StepReason, Prompt: "3"},
	}}
	deps := Deps{Reasoner: fakeReasoner{out: "ok"}}

	res := Execute(context.Background(), plan, deps, 2, time.Second)
	assert.Len(t, res.Steps, 2)
	assert.True(t, res.Truncated)
}

func TestExecuteRetrieveStep(t *testing.T) {
	plan := Plan{Steps: []Step{{Kind: StepRetrieve, Query: "q", K: 3}}}
	deps := Deps{Retrieve: fakeRetriever{hits: []string{"a", "b"}}}

	res := Execute(context.Background(), plan, deps, 8, time.Second)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "2 results", res.Steps[0].Output)
}

func TestExecuteVerifyFailurePredicateAborts(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Kind: StepVerify, Predicate: func(env Env) bool { return false }, OnFail: OnFailAbort},
		{Kind: StepReason, Prompt: "never"},
	}}
	deps := Deps{Reasoner: fakeReasoner{out: "x"}}

	res := Execute(context.Background(), plan, deps, 8, time.Second)
	require.Len(t, res.Steps, 1)
	assert.Error(t, res.Steps[0].Err)
}
