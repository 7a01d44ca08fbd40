package session

import (
	"context"
	"sync"
)

// Store persists workflow state between requests, keyed by session ID.
// A missing session yields a fresh empty State, never an error.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, state *State) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-memory implementation for development and tests.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Get retrieves the state for a session, or an empty state if none exists.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[sessionID]
	if !ok {
		return &State{}, nil
	}
	return &state, nil
}

// Save stores the state for a session.
func (m *MemoryStore) Save(ctx context.Context, sessionID string, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[sessionID] = *state
	return nil
}

// Clear removes the state for a session.
func (m *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, sessionID)
	return nil
}
