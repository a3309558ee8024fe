// Package planner implements the Reasoning Planner/Executor (C7, spec
// §4.7): plan construction across three strategies and ordered step
// execution with scoped environment passing and permission gating.
// Grounded on
// codeready-toolchain-tarsy/pkg/agent/orchestrator/runner.go's goroutine
// lifecycle/cancellation shape (generalized from sub-agent dispatch to
// single-plan step execution) and
// codeready-toolchain-tarsy/pkg/agent/controller/react.go's
// iterate-until-done loop shape.
package planner

// StepKind discriminates the four step variants of spec §4.7.
type StepKind string

const (
	StepReason   StepKind = "reason"
	StepTool     StepKind = "tool"
	StepRetrieve StepKind = "retrieve"
	StepVerify   StepKind = "verify"
)

// OnFail controls what a failing Verify step does to the enclosing plan.
type OnFail string

const (
	OnFailAbort    OnFail = "abort"
	OnFailContinue OnFail = "continue"
)

// ToolMode selects whether a Tool step is dispatched for real or simulated.
type ToolMode string

const (
	ToolModeReal      ToolMode = "real"
	ToolModeSimulated ToolMode = "simulated"
)

// Step is one element of a Plan (spec §4.7). Only the fields relevant to
// Kind are populated.
type Step struct {
	Kind StepKind

	// Reason
	Prompt       string
	StrategyHint Strategy

	// Tool
	ToolName string
	ToolArgs map[string]any
	Mode     ToolMode

	// Retrieve
	Query string
	K     int

	// Verify
	Predicate func(env Env) bool
	OnFail    OnFail
}

// Strategy names the plan-generation approach (spec §4.7).
type Strategy string

const (
	StrategyAuto           Strategy = "auto"
	StrategyZeroShot       Strategy = "zero-shot"
	StrategyEvolutionary   Strategy = "evolutionary"
	StrategyFirstPrinciple Strategy = "first-principles"
)

// Plan is an ordered, strategy-tagged list of steps.
type Plan struct {
	Strategy Strategy
	Steps    []Step
}

// Env is the scoped environment threaded through step execution: each
// step's output is exposed to subsequent steps by key (spec §4.7: "a
// step's outputs are exposed to subsequent steps via a scoped
// environment").
type Env map[string]any
