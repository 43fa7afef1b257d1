// Package session holds per-conversation dialogue state.
package session

import (
	"sync"

	"github.com/autostream-x/autostream-agent/types"
)

// State is the full dialogue state for one conversation: the ordered
// transcript, the intent from the most recent classification, and the
// lead record being filled.
type State struct {
	History []types.Turn
	Intent  types.Intent
	Lead    types.Lead
}

// NewState returns an empty state for a fresh conversation.
func NewState() State {
	return State{Intent: types.IntentUnclassified}
}

// Clone returns a deep copy. Turn handling mutates the copy and keeps
// the original for rollback.
func (s State) Clone() State {
	history := make([]types.Turn, len(s.History))
	copy(history, s.History)
	return State{
		History: history,
		Intent:  s.Intent,
		Lead:    s.Lead,
	}
}

// Store persists dialogue state between turns.
type Store interface {
	Get(id string) (State, bool)
	Put(id string, st State)
}

// MemoryStore is a mutex-guarded in-memory store. Values are cloned
// on the way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

// Get returns a copy of the state for id.
func (m *MemoryStore) Get(id string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[id]
	if !ok {
		return State{}, false
	}
	return st.Clone(), true
}

// Put stores a copy of st under id.
func (m *MemoryStore) Put(id string, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = st.Clone()
}
