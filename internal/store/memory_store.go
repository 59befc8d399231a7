package store

import (
	"context"
	"sync"
	"time"

	"axolotld/internal/domain"
)

// MemoryStateStore keeps ratchet states in a map. Used by clients and tests.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[domain.X25519Public]*domain.RatchetState
	now    func() time.Time
}

// NewMemoryStateStore returns an empty MemoryStateStore.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[domain.X25519Public]*domain.RatchetState),
		now:    time.Now,
	}
}

// Get returns a copy of the state for peer.
func (s *MemoryStateStore) Get(ctx context.Context, peer domain.X25519Public) (*domain.RatchetState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[peer]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return st.Clone(), nil
}

// Create returns a new empty state for peer.
func (s *MemoryStateStore) Create(peer domain.X25519Public) *domain.RatchetState {
	return newState(peer, s.now())
}

// Save stores a copy of st.
func (s *MemoryStateStore) Save(ctx context.Context, st *domain.RatchetState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[st.PeerIdentity] = st.Clone()
	return nil
}

// Delete removes the state for peer.
func (s *MemoryStateStore) Delete(ctx context.Context, peer domain.X25519Public) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, peer)
	return nil
}

// Len reports how many peers have a stored state.
func (s *MemoryStateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Compile-time assertion that MemoryStateStore implements domain.StateStore.
var _ domain.StateStore = (*MemoryStateStore)(nil)
