package audit

import (
	"context"
	"sync"
)

// Memory is an in-memory recorder, mainly for tests and examples.
type Memory struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemory creates an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Append adds an event to the log.
func (m *Memory) Append(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// ByChallenge returns all events for one challenge in append order.
func (m *Memory) ByChallenge(ctx context.Context, challengeID uint64) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Event
	for _, e := range m.events {
		if e.ChallengeID == challengeID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every event in append order.
func (m *Memory) All(ctx context.Context) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Event(nil), m.events...), nil
}

var (
	_ Recorder = (*Memory)(nil)
	_ Reader   = (*Memory)(nil)
)
