package ledger

import (
	"context"
	"sync"
)

type inMemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemory creates a concurrency-safe in-memory bookkeeping log for unit
// tests and development mode.
func NewInMemory() Repository {
	return &inMemoryRepository{}
}

func (r *inMemoryRepository) Append(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *inMemoryRepository) ListByAddress(_ context.Context, address string, limit int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// entries are appended in time order; walk backwards for newest first
	out := make([]Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		if e.FromAddress == address || e.ToAddress == address {
			out = append(out, e)
		}
	}
	return out, nil
}
