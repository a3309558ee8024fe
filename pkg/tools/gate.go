package tools

import (
	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// Mode is the active user mode the permission gate resolves against (spec
// §4.8): beginner, pro, safe, simulation, training.
type Mode string

const (
	ModeBeginner   Mode = "beginner"
	ModePro        Mode = "pro"
	ModeSafe       Mode = "safe"
	ModeSimulation Mode = "simulation"
	ModeTraining   Mode = "training"
)

// Decision is the outcome of resolving a tool call against the gate.
type Decision struct {
	Allow           bool
	RequireApproval bool
	SimulationOnly  bool
}

// Gate resolves permission decisions for registered tools (spec §4.8):
// per-tool overrides, then active mode, then the global simulation flag.
type Gate struct {
	registry         *Registry
	globalSimulation bool
}

// NewGate builds a Gate over registry. globalSimulation forces every tool
// to simulationOnly regardless of mode, independent of the "simulation"
// mode itself (spec §4.8's "global simulation flag" resolution step).
func NewGate(registry *Registry, globalSimulation bool) *Gate {
	return &Gate{registry: registry, globalSimulation: globalSimulation}
}

// Resolve computes the Decision for invoking name under mode, and, if the
// descriptor requires approval and approvalToken is empty, returns
// coreerr.ErrApprovalRequired. A tool that is denied outright (unknown name,
// or DenyOverride) returns coreerr.ErrToolNotPermitted instead — these two
// error kinds are always distinguished (spec §4.8: "raises ApprovalRequired
// (not ToolNotPermitted)").
func (g *Gate) Resolve(name string, mode Mode, approvalToken string) (Decision, error) {
	d, ok := g.registry.Get(name)
	if !ok {
		return Decision{}, coreerr.New(coreerr.ErrToolNotPermitted, "TOOL_UNKNOWN", "tool \""+name+"\" is not registered", "")
	}
	if d.DenyOverride {
		return Decision{}, coreerr.New(coreerr.ErrToolNotPermitted, "TOOL_DENIED", "tool \""+name+"\" is denied by override", "")
	}

	dec := Decision{Allow: true}

	if g.globalSimulation || mode == ModeSafe || mode == ModeSimulation || mode == ModeTraining {
		dec.SimulationOnly = true
	}

	requireApproval := false
	if mode == ModeBeginner && (d.hasEffect(SideEffectWrite) || d.hasEffect(SideEffectNetwork) || d.hasEffect(SideEffectDestructive)) {
		requireApproval = true
	}
	if d.RequireApprovalOverride != nil {
		requireApproval = *d.RequireApprovalOverride
	}
	dec.RequireApproval = requireApproval

	if requireApproval && approvalToken == "" {
		return dec, coreerr.New(coreerr.ErrApprovalRequired, "APPROVAL_REQUIRED", "tool \""+name+"\" requires approval", "")
	}

	return dec, nil
}
