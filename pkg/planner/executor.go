package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// Reasoner answers a Reason step.
type Reasoner interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever answers a Retrieve step.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// PermissionGate resolves whether a Tool step may run. *tools.Gate does
// not satisfy it directly (its Resolve takes a tools.Mode and returns a
// Decision); pkg/core wraps it in an adapter. Kept as a narrow interface
// here to avoid the planner importing the tools package.
type PermissionGate interface {
	Resolve(name string, mode string, approvalToken string) (allow, simulationOnly bool, err error)
}

// ToolRunner performs the actual side-effecting call for a real Tool step.
type ToolRunner interface {
	RunTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Deps bundles the collaborators the executor dispatches steps to.
type Deps struct {
	Reasoner Reasoner
	Retrieve Retriever
	Gate     PermissionGate
	Tools    ToolRunner
	Mode     string
	Approval string
}

// StepResult records what happened when running a single step.
type StepResult struct {
	Index  int
	Kind   StepKind
	Output string
	Err    error
}

// Result is the outcome of executing an entire plan.
type Result struct {
	Steps     []StepResult
	Env       Env
	Truncated bool
}

const defaultMaxSteps = 8

// Execute runs plan's steps in order against deps, honoring maxSteps
// (spec §4.7 default 8) and a wall-clock timeout. A Tool step denied by
// the gate raises ToolNotPermitted, aborting the plan unless the
// immediately-following Verify step (or the tool step's own semantics)
// specifies onFail=continue; here that's modeled by the Verify step that
// follows a Tool step in the caller's plan. Simulated tool steps (or
// steps the gate marks simulationOnly) never call Tools.RunTool and
// instead return the canonical "[SIMULATED OUTPUT for <tool>]" string.
func Execute(ctx context.Context, plan Plan, deps Deps, maxSteps int, timeout time.Duration) Result {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env := make(Env)
	res := Result{Env: env}

	for i, step := range plan.Steps {
		if i >= maxSteps {
			res.Truncated = true
			break
		}
		if ctx.Err() != nil {
			res.Truncated = true
			break
		}

		sr := StepResult{Index: i, Kind: step.Kind}
		out, err := runStep(ctx, step, deps, env)
		sr.Output = out
		sr.Err = err
		res.Steps = append(res.Steps, sr)
		env[fmt.Sprintf("step%d", i)] = out

		if err != nil {
			if coreerr.Is(err, coreerr.ErrToolNotPermitted) {
				if i+1 < len(plan.Steps) && plan.Steps[i+1].Kind == StepVerify && plan.Steps[i+1].OnFail == OnFailContinue {
					continue
				}
				break
			}
			if step.Kind == StepVerify {
				break
			}
		}
	}

	return res
}

func runStep(ctx context.Context, step Step, deps Deps, env Env) (string, error) {
	switch step.Kind {
	case StepReason:
		if deps.Reasoner == nil {
			return "", coreerr.New(coreerr.ErrInternal, "PLANNER_NO_REASONER", "no reasoner configured", "")
		}
		return deps.Reasoner.Generate(ctx, step.Prompt)

	case StepRetrieve:
		if deps.Retrieve == nil {
			return "", coreerr.New(coreerr.ErrInternal, "PLANNER_NO_RETRIEVER", "no retriever configured", "")
		}
		hits, err := deps.Retrieve.Retrieve(ctx, step.Query, step.K)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d results", len(hits)), nil

	case StepVerify:
		if step.Predicate == nil {
			return "ok", nil
		}
		if step.Predicate(env) {
			return "ok", nil
		}
		err := coreerr.New(coreerr.ErrValidation, "VERIFY_FAILED", "verification predicate failed", "")
		if step.OnFail == OnFailContinue {
			return "failed", nil
		}
		return "", err

	case StepTool:
		return runToolStep(ctx, step, deps)

	default:
		return "", coreerr.New(coreerr.ErrInternal, "PLANNER_UNKNOWN_STEP", "unknown step kind", "")
	}
}

func runToolStep(ctx context.Context, step Step, deps Deps) (string, error) {
	if deps.Gate == nil {
		return "", coreerr.New(coreerr.ErrInternal, "PLANNER_NO_GATE", "no permission gate configured", "")
	}
	allow, simulationOnly, err := deps.Gate.Resolve(step.ToolName, deps.Mode, deps.Approval)
	if err != nil {
		return "", err
	}
	if !allow {
		return "", coreerr.New(coreerr.ErrToolNotPermitted, "TOOL_DENIED", "tool \""+step.ToolName+"\" is not permitted", "")
	}

	if simulationOnly || step.Mode == ToolModeSimulated {
		return fmt.Sprintf("[SIMULATED OUTPUT for %s]", step.ToolName), nil
	}

	if deps.Tools == nil {
		return "", coreerr.New(coreerr.ErrInternal, "PLANNER_NO_TOOLS", "no tool runner configured", "")
	}
	return deps.Tools.RunTool(ctx, step.ToolName, step.ToolArgs)
}
