package memory

import (
	"strings"
	"sync"

	"github.com/aegis-sec/aegis/pkg/models"
)

// EpisodicStore is the append-mostly ordered interaction log (spec §3/§4.4):
// exact key-get and substring-find, no delete path beyond explicit Remove.
// Grounded on the teacher's message-log shape (ordered slice, RWMutex,
// substring scan) generalized from chat messages to interaction records.
type EpisodicStore struct {
	mu      sync.RWMutex
	records []models.EpisodicRecord
	byKey   map[string]int // key -> index into records
}

// NewEpisodicStore creates an empty episodic store.
func NewEpisodicStore() *EpisodicStore {
	return &EpisodicStore{byKey: make(map[string]int)}
}

// Append adds a new record to the end of the log. Keys must be unique
// within the store (spec §3 MemoryItem invariant).
func (s *EpisodicStore) Append(rec models.EpisodicRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[rec.Key] = len(s.records)
	s.records = append(s.records, rec)
}

// Get returns the record stored under key, if any.
func (s *EpisodicStore) Get(key string) (models.EpisodicRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byKey[key]
	if !ok {
		return models.EpisodicRecord{}, false
	}
	return s.records[idx], true
}

// FindSubstring returns, newest-first, every record whose input, output or
// context contains substr (case-insensitive).
func (s *EpisodicStore) FindSubstring(substr string) []models.EpisodicRecord {
	needle := strings.ToLower(substr)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.EpisodicRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if strings.Contains(strings.ToLower(r.Input), needle) ||
			strings.Contains(strings.ToLower(r.Output), needle) ||
			strings.Contains(strings.ToLower(r.Context), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Remove deletes the record stored under key, if present. Indices for
// entries after the removed one are rebuilt, so Remove is O(n) — called
// rarely relative to Append.
func (s *EpisodicStore) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byKey[key]
	if !ok {
		return false
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	delete(s.byKey, key)
	for k, i := range s.byKey {
		if i > idx {
			s.byKey[k] = i - 1
		}
	}
	return true
}

// All returns a snapshot of every record, oldest first — used by
// Subsystem.Persist.
func (s *EpisodicStore) All() []models.EpisodicRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.EpisodicRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Count reports how many records are stored.
func (s *EpisodicStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// LoadAll replaces the store's contents with records, rebuilding the key
// index. Used on Subsystem.Initialize when loading from disk.
func (s *EpisodicStore) LoadAll(records []models.EpisodicRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]models.EpisodicRecord{}, records...)
	s.byKey = make(map[string]int, len(records))
	for i, r := range s.records {
		s.byKey[r.Key] = i
	}
}
