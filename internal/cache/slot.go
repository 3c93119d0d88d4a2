// Package cache holds the single chart-data cache slot and the gateway that
// decides, per request, between serving it, refreshing it, or falling back to
// a stale copy when the upstream fails.
package cache

import (
	"context"
	"sync"
	"time"
)

// Slot is the one cached chart payload. Payload and ExpiresAt are always
// written together; ExpiresAt is meaningless for an empty slot.
type Slot struct {
	Payload   []byte
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Empty reports whether the slot holds no payload.
func (s Slot) Empty() bool {
	return len(s.Payload) == 0
}

// ValidAt reports whether the slot holds a payload that has not expired at now.
func (s Slot) ValidAt(now time.Time) bool {
	return !s.Empty() && now.Before(s.ExpiresAt)
}

// Store persists the slot. Load returns an empty slot and nil error when
// nothing has been stored yet.
type Store interface {
	Load(ctx context.Context) (Slot, error)
	Save(ctx context.Context, slot Slot) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the slot in process memory. It is reset on restart.
// Thread-safe with sync.RWMutex.
type MemoryStore struct {
	mu   sync.RWMutex
	slot Slot
}

// NewMemoryStore creates an empty in-memory slot.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the slot.
func (m *MemoryStore) Load(_ context.Context) (Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot, nil
}

// Save replaces the slot.
func (m *MemoryStore) Save(_ context.Context, slot Slot) error {
	payload := make([]byte, len(slot.Payload))
	copy(payload, slot.Payload)
	slot.Payload = payload

	m.mu.Lock()
	m.slot = slot
	m.mu.Unlock()
	return nil
}

// Clear empties the slot.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.slot = Slot{}
	m.mu.Unlock()
	return nil
}
