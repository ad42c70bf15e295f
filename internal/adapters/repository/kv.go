// Package repository persists risk assessments and the activity log.
//
// Records live in a key-value store the same way the dashboard keeps them in
// browser local storage: one JSON document per key, rewritten in full on
// every append.
package repository

import (
	"context"
	"sync"
)

// Storage keys.
const (
	KeyPredictions  = "predictions"
	KeyActivityLogs = "activityLogs"
)

// KV is a durable string-keyed blob store.
type KV interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Put replaces the value for key.
	Put(ctx context.Context, key string, value []byte) error
	// Close releases underlying resources.
	Close() error
}

// MemoryKV is a KV held in process memory. Values are copied on the way in
// and out.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put implements KV.
func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Close implements KV.
func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
