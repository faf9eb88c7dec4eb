// Package ledger provides challenge record stores behind the
// escrow.Ledger interface: an in-memory store for tests and simulations,
// and a SQLite store for durable use.
package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/daystake/go-daystake/escrow"
)

// Memory is an in-memory ledger.
type Memory struct {
	mu     sync.RWMutex
	nextID uint64
	items  map[uint64]*escrow.Challenge
}

// NewMemory creates an empty in-memory ledger. IDs start at 1.
func NewMemory() *Memory {
	return &Memory{items: make(map[uint64]*escrow.Challenge)}
}

// NextID allocates the next challenge ID.
func (m *Memory) NextID(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

// Put stores a deep copy of the record.
func (m *Memory) Put(ctx context.Context, c *escrow.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = c.Clone()
	return nil
}

// Get returns a deep copy of the record, or escrow.ErrNotFound.
func (m *Memory) Get(ctx context.Context, id uint64) (*escrow.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[id]
	if !ok {
		return nil, escrow.ErrNotFound
	}
	return c.Clone(), nil
}

// List returns copies of all records ordered by ID.
func (m *Memory) List(ctx context.Context) ([]*escrow.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*escrow.Challenge, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ escrow.Ledger = (*Memory)(nil)
