package memory

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/aegis-sec/aegis/pkg/models"
)

// errEdgeDanglingReference is returned by AddEdge when source or target
// does not reference a live node (spec §3 invariant).
var errEdgeDanglingReference = errors.New("memory: edge references a node that does not exist")

// ConceptGraph is a labeled directed graph over concept nodes (spec §3).
// Implemented as an arena (flat node slice) plus an id→index map; deletes
// tombstone the node and cascade to incident edges rather than shifting
// the slice, with periodic Compact() reclaiming tombstoned space (spec §9
// — the redesign chosen over a pointer-linked graph with circular
// references).
type ConceptGraph struct {
	mu        sync.RWMutex
	nodes     []models.GraphNode
	tombstone []bool
	index     map[string]int // node id -> index into nodes/tombstone
	edges     []models.GraphEdge
	edgeGone  []bool
}

// NewConceptGraph creates an empty graph.
func NewConceptGraph() *ConceptGraph {
	return &ConceptGraph{index: make(map[string]int)}
}

// AddNode inserts a new node, assigning a UUID if node.ID is empty, and
// returns the assigned id.
func (g *ConceptGraph) AddNode(node models.GraphNode) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if idx, ok := g.index[node.ID]; ok && !g.tombstone[idx] {
		g.nodes[idx] = node
		return node.ID
	}
	g.index[node.ID] = len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.tombstone = append(g.tombstone, false)
	return node.ID
}

// AddEdge inserts a directed edge. Returns an error if either endpoint
// does not reference a live node (spec §3 invariant).
func (g *ConceptGraph) AddEdge(edge models.GraphEdge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.liveLocked(edge.Source) || !g.liveLocked(edge.Target) {
		return errEdgeDanglingReference
	}
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	g.edges = append(g.edges, edge)
	g.edgeGone = append(g.edgeGone, false)
	return nil
}

func (g *ConceptGraph) liveLocked(id string) bool {
	idx, ok := g.index[id]
	return ok && !g.tombstone[idx]
}

// RemoveNode tombstones the node and cascades to every incident edge (spec
// §3: "deletions cascade to incident edges").
func (g *ConceptGraph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.index[id]
	if !ok {
		return
	}
	g.tombstone[idx] = true
	for i, e := range g.edges {
		if e.Source == id || e.Target == id {
			g.edgeGone[i] = true
		}
	}
}

// Node returns the live node registered under id.
func (g *ConceptGraph) Node(id string) (models.GraphNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.index[id]
	if !ok || g.tombstone[idx] {
		return models.GraphNode{}, false
	}
	return g.nodes[idx], true
}

// Neighbors returns the ids reachable from id via a live outgoing edge.
func (g *ConceptGraph) Neighbors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for i, e := range g.edges {
		if !g.edgeGone[i] && e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}

// Nodes returns every live node.
func (g *ConceptGraph) Nodes() []models.GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.GraphNode, 0, len(g.nodes))
	for i, n := range g.nodes {
		if !g.tombstone[i] {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns every live edge.
func (g *ConceptGraph) Edges() []models.GraphEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.GraphEdge, 0, len(g.edges))
	for i, e := range g.edges {
		if !g.edgeGone[i] {
			out = append(out, e)
		}
	}
	return out
}

// Compact reclaims tombstoned nodes and removed edges by rebuilding the
// arena without them. Intended to run periodically from the health
// monitor's background loop, not on every mutation.
func (g *ConceptGraph) Compact() {
	g.mu.Lock()
	defer g.mu.Unlock()

	liveNodes := make([]models.GraphNode, 0, len(g.nodes))
	liveTomb := make([]bool, 0, len(g.nodes))
	newIndex := make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		if g.tombstone[i] {
			continue
		}
		newIndex[n.ID] = len(liveNodes)
		liveNodes = append(liveNodes, n)
		liveTomb = append(liveTomb, false)
	}
	g.nodes, g.tombstone, g.index = liveNodes, liveTomb, newIndex

	liveEdges := make([]models.GraphEdge, 0, len(g.edges))
	liveEdgeGone := make([]bool, 0, len(g.edges))
	for i, e := range g.edges {
		if g.edgeGone[i] {
			continue
		}
		liveEdges = append(liveEdges, e)
		liveEdgeGone = append(liveEdgeGone, false)
	}
	g.edges, g.edgeGone = liveEdges, liveEdgeGone
}

// LoadAll replaces the graph's contents with nodes and edges, rebuilding
// the arena and index. Used on Subsystem.Initialize.
func (g *ConceptGraph) LoadAll(nodes []models.GraphNode, edges []models.GraphEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = append([]models.GraphNode{}, nodes...)
	g.tombstone = make([]bool, len(g.nodes))
	g.index = make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		g.index[n.ID] = i
	}
	g.edges = append([]models.GraphEdge{}, edges...)
	g.edgeGone = make([]bool, len(g.edges))
}
