package core

import (
	"context"
	"fmt"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/memory"
	"github.com/aegis-sec/aegis/pkg/tools"
)

// registerBuiltinTools installs the core's built-in tool descriptors and
// their runner functions. Concrete scan/exploit payload formats are an
// explicit spec Non-goal, so the side-effecting security tools
// (nmap/gobuster-style) are registered purely so the permission gate has
// something real to resolve against (spec §4.8, scenario S4); their
// runners only execute under a real tool-execution backend, which this
// module does not ship. The introspection tools are fully real, backed by
// the memory subsystem already wired into Core.
func registerBuiltinTools(registry *tools.Registry, sub *memory.Subsystem) map[string]func(ctx context.Context, args map[string]any) (string, error) {
	runners := make(map[string]func(ctx context.Context, args map[string]any) (string, error))

	mustRegister(registry, tools.Descriptor{
		Name:        "memory-search",
		Category:    "introspection",
		SideEffects: []tools.SideEffect{tools.SideEffectRead},
	})
	runners["memory-search"] = func(ctx context.Context, args map[string]any) (string, error) {
		query, _ := args["query"].(string)
		limit := 5
		if v, ok := args["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}
		matches, err := sub.SearchSimilar(ctx, query, limit)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d matching memories", len(matches)), nil
	}

	mustRegister(registry, tools.Descriptor{
		Name:        "concept-lookup",
		Category:    "introspection",
		SideEffects: []tools.SideEffect{tools.SideEffectRead},
	})
	runners["concept-lookup"] = func(ctx context.Context, args map[string]any) (string, error) {
		id, _ := args["id"].(string)
		node, ok := sub.Graph.Node(id)
		if !ok {
			return "", coreerr.New(coreerr.ErrNotFound, "CONCEPT_NOT_FOUND", "no concept graph node with id \""+id+"\"", "")
		}
		return node.Label, nil
	}

	for _, name := range []string{"nmap", "gobuster", "nikto"} {
		mustRegister(registry, tools.Descriptor{
			Name:        name,
			Category:    "recon",
			SideEffects: []tools.SideEffect{tools.SideEffectNetwork},
		})
		runners[name] = unimplementedExecutor(name)
	}

	mustRegister(registry, tools.Descriptor{
		Name:        "file-cleanup",
		Category:    "remediation",
		SideEffects: []tools.SideEffect{tools.SideEffectWrite, tools.SideEffectDestructive},
	})
	runners["file-cleanup"] = unimplementedExecutor("file-cleanup")

	return runners
}

func unimplementedExecutor(name string) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		return "", coreerr.New(coreerr.ErrBackendUnavailable, "TOOL_EXECUTOR_UNAVAILABLE", "no execution backend is configured for tool \""+name+"\"", "")
	}
}

func mustRegister(registry *tools.Registry, d tools.Descriptor) {
	if err := registry.Register(d); err != nil {
		panic(fmt.Sprintf("core: registering built-in tool %q: %v", d.Name, err))
	}
}
