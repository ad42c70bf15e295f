// Package dedupe tracks identifiers that have already been used so that
// every stored assessment keeps a unique ID.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID so it can be used again. Callers use it to roll
	// back a reservation when the write it guarded failed.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps every ID for the life of the process. There is no
// eviction: an evicted ID could be reused and break uniqueness.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates an empty deduper, optionally pre-seeded with ids.
func NewInMemoryDeduper(ids ...string) Deduper {
	d := &inMemoryDeduper{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		d.seen[id] = struct{}{}
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

// Size returns the number of recorded IDs.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
