package memory

import (
	"sync"

	"github.com/aegis-sec/aegis/pkg/models"
)

// WorkingMemory is a bounded FIFO ring buffer of recent MemoryItems (spec
// §3/§4.4). Never persisted — it exists purely to give the planner cheap
// access to the last few interactions within a session.
type WorkingMemory struct {
	mu       sync.RWMutex
	capacity int
	items    []models.MemoryItem
}

// DefaultWorkingMemoryCapacity matches spec §3's default ring size.
const DefaultWorkingMemoryCapacity = 10

// NewWorkingMemory creates a ring buffer holding at most capacity items.
// capacity <= 0 falls back to DefaultWorkingMemoryCapacity.
func NewWorkingMemory(capacity int) *WorkingMemory {
	if capacity <= 0 {
		capacity = DefaultWorkingMemoryCapacity
	}
	return &WorkingMemory{capacity: capacity}
}

// Push appends item, evicting the oldest entry on overflow.
func (w *WorkingMemory) Push(item models.MemoryItem) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, item)
	if len(w.items) > w.capacity {
		w.items = w.items[len(w.items)-w.capacity:]
	}
}

// All returns a snapshot of the buffer, oldest first.
func (w *WorkingMemory) All() []models.MemoryItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.MemoryItem, len(w.items))
	copy(out, w.items)
	return out
}

// Clear empties the buffer. Called on Subsystem.Initialize (spec §4.4:
// "clears transient working memory").
func (w *WorkingMemory) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = nil
}
