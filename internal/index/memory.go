package index

import (
	"sync"
	"time"
)

// BackendStatus is the outcome of the latest ping of one backend.
type BackendStatus struct {
	Name      string        `json:"name"`
	Address   string        `json:"address"`
	Up        bool          `json:"up"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	CheckedAt time.Time     `json:"checked_at"`
}

// StatusIndex keeps the latest health observation of every backend in memory.
// It is informational only; request routing never consults it.
type StatusIndex struct {
	mu        sync.RWMutex
	statuses  map[string]BackendStatus // name -> status
	order     []string                 // names in the order first seen
	lastSweep time.Time                // timestamp of the last full sweep
}

// NewStatusIndex creates an empty status index
func NewStatusIndex() *StatusIndex {
	return &StatusIndex{
		statuses: make(map[string]BackendStatus),
	}
}

// Update replaces all statuses with the result of a full sweep
func (idx *StatusIndex) Update(statuses []BackendStatus) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear and rebuild
	idx.statuses = make(map[string]BackendStatus, len(statuses))
	idx.order = idx.order[:0]
	for _, s := range statuses {
		if _, seen := idx.statuses[s.Name]; !seen {
			idx.order = append(idx.order, s.Name)
		}
		idx.statuses[s.Name] = s
	}
	idx.lastSweep = time.Now()
}

// Set adds or updates a single status
func (idx *StatusIndex) Set(s BackendStatus) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, seen := idx.statuses[s.Name]; !seen {
		idx.order = append(idx.order, s.Name)
	}
	idx.statuses[s.Name] = s
}

// Get retrieves the status of a backend by name
func (idx *StatusIndex) Get(name string) (BackendStatus, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s, ok := idx.statuses[name]
	return s, ok
}

// All returns every status in the order the backends were first seen
func (idx *StatusIndex) All() []BackendStatus {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]BackendStatus, 0, len(idx.order))
	for _, name := range idx.order {
		out = append(out, idx.statuses[name])
	}
	return out
}

// Count returns the number of backends in the index
func (idx *StatusIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.statuses)
}

// UpCount returns the number of backends whose last ping succeeded
func (idx *StatusIndex) UpCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, s := range idx.statuses {
		if s.Up {
			n++
		}
	}
	return n
}

// GetLastSweep returns the timestamp of the last full sweep
func (idx *StatusIndex) GetLastSweep() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastSweep
}
