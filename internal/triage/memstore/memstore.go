// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/linnemanlabs/screener/internal/triage"
)

// Store holds conversation states in memory. Suitable for dev/testing.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte // conversation ID -> serialized state
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// Get retrieves a conversation by its ID. Returns an independent copy.
func (s *Store) Get(_ context.Context, id string) (*triage.ConversationState, bool, error) {
	s.mu.RLock()
	data, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var st triage.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fmt.Errorf("unmarshal state %s: %w", id, err)
	}
	return &st, true, nil
}

// Save stores a snapshot of the state, replacing any previous one.
func (s *Store) Save(_ context.Context, st *triage.ConversationState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", st.ID, err)
	}
	s.mu.Lock()
	s.items[st.ID] = data
	s.mu.Unlock()
	return nil
}

// Delete removes a conversation. Returns triage.ErrNotFound when absent.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return triage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Len reports how many conversations are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
