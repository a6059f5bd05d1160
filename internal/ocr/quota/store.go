// Package quota tracks per-provider daily usage counters so the strategy
// selector can skip cloud backends that have no budget left for the day.
package quota

import (
	"context"
	"sync"
	"time"

	"afipscan/pkg/models"
)

// Store is a daily usage counter keyed by provider. Counters reset at UTC
// midnight.
type Store interface {
	// Increment adds one call to today's counter and returns the new count.
	Increment(ctx context.Context, provider models.Provider) (int64, error)

	// Current returns today's count without modifying it.
	Current(ctx context.Context, provider models.Provider) (int64, error)
}

// MemoryStore is the in-process Store used when no Redis URL is
// configured. Counters are lost on restart, which for a daily quota means
// at worst one over-generous day.
type MemoryStore struct {
	mu     sync.Mutex
	day    string
	counts map[models.Provider]int64
	now    func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts: make(map[models.Provider]int64),
		now:    time.Now,
	}
}

// NewMemoryStoreWithClock creates a store with an injected clock (for testing).
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		counts: make(map[models.Provider]int64),
		now:    now,
	}
}

// Increment implements Store.
func (m *MemoryStore) Increment(_ context.Context, provider models.Provider) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	m.counts[provider]++
	return m.counts[provider], nil
}

// Current implements Store.
func (m *MemoryStore) Current(_ context.Context, provider models.Provider) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	return m.counts[provider], nil
}

// rollover discards counters from previous days. Callers hold the lock.
func (m *MemoryStore) rollover() {
	today := m.now().UTC().Format("2006-01-02")
	if m.day != today {
		m.day = today
		m.counts = make(map[models.Provider]int64)
	}
}
