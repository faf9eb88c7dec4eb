package escrow

import "sync"

// keyedMutex serializes operations per challenge ID. Operations on
// different IDs never block one another. Entries are never removed, which
// matches the ledger: challenges are never deleted.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint64]*sync.Mutex)}
}

// lock acquires the mutex for id and returns the unlock function.
func (k *keyedMutex) lock(id uint64) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
