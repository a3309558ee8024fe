package memory

import (
	"fmt"
	"sync"

	"github.com/aegis-sec/aegis/pkg/models"
)

// ProceduralStore maps a callable name to its declarative AST body (spec
// §3/§9). Loading never evaluates anything — it is a plain JSON decode —
// so the "no unchecked code is invoked during load" invariant holds by
// construction; the interpreter that walks the AST lives in pkg/planner
// and is itself gated by the tool registry (C8) at every Tool step.
type ProceduralStore struct {
	mu        sync.RWMutex
	artifacts map[string]models.ProceduralArtifact
}

// NewProceduralStore creates an empty procedural store.
func NewProceduralStore() *ProceduralStore {
	return &ProceduralStore{artifacts: make(map[string]models.ProceduralArtifact)}
}

// Put registers or replaces the artifact under artifact.Name.
func (s *ProceduralStore) Put(artifact models.ProceduralArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[artifact.Name] = artifact
}

// Get returns the artifact registered under name.
func (s *ProceduralStore) Get(name string) (models.ProceduralArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[name]
	if !ok {
		return models.ProceduralArtifact{}, fmt.Errorf("memory: no procedural artifact named %q", name)
	}
	return a, nil
}

// Remove deletes the artifact registered under name, if any.
func (s *ProceduralStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.artifacts, name)
}

// All returns a snapshot of every registered artifact.
func (s *ProceduralStore) All() []models.ProceduralArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ProceduralArtifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		out = append(out, a)
	}
	return out
}

// Count reports how many artifacts are registered.
func (s *ProceduralStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

// LoadAll replaces the store's contents with artifacts. Used on
// Subsystem.Initialize; purely a map rebuild, never an eval.
func (s *ProceduralStore) LoadAll(artifacts []models.ProceduralArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = make(map[string]models.ProceduralArtifact, len(artifacts))
	for _, a := range artifacts {
		s.artifacts[a.Name] = a
	}
}
