// Package store provides in-memory Persistence for tests and development.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/warp/allocation-engine/allocation"
)

// ErrSaveRejected is returned by Save while the store is set to fail.
var ErrSaveRejected = errors.New("memory store: save rejected")

// =============================================================================
// MEMORY STORE - Holds the dataset as its JSON encoding
// =============================================================================

// Memory keeps the encoded dataset like a browser key-value slot would.
// Keeping bytes rather than a pointer means callers can never alias the
// stored state, and malformed blobs can be planted with SetRaw.
type Memory struct {
	mu        sync.RWMutex
	blob      []byte
	saves     int
	failSaves bool
}

func NewMemory() *Memory {
	return &Memory{}
}

// Load decodes the stored blob. No blob returns (nil, nil).
func (m *Memory) Load(_ context.Context) (*allocation.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.blob == nil {
		return nil, nil
	}
	var ds allocation.Dataset
	if err := json.Unmarshal(m.blob, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", allocation.ErrMalformedState, err)
	}
	return &ds, nil
}

// Save encodes and stores the dataset.
func (m *Memory) Save(_ context.Context, ds *allocation.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSaves {
		return ErrSaveRejected
	}
	blob, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	m.blob = blob
	m.saves++
	return nil
}

// SetRaw replaces the stored blob verbatim.
func (m *Memory) SetRaw(blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = append([]byte(nil), blob...)
}

// Raw returns a copy of the stored blob.
func (m *Memory) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.blob...)
}

// FailSaves makes subsequent saves fail until called with false.
func (m *Memory) FailSaves(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = fail
}

// Saves counts successful saves.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
