package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"axolotld/internal/domain"
)

const statesDirname = "states"

// StateFileStore persists one ratchet state per peer as a JSON file.
type StateFileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewStateFileStore returns a StateFileStore rooted at dir/states.
func NewStateFileStore(dir string) (*StateFileStore, error) {
	d := filepath.Join(dir, statesDirname)
	if err := os.MkdirAll(d, 0o700); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", d, err)
	}
	return &StateFileStore{dir: d, now: time.Now}, nil
}

// Get loads the state for peer.
func (s *StateFileStore) Get(ctx context.Context, peer domain.X25519Public) (*domain.RatchetState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path(peer))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrStateNotFound
	}
	st := new(domain.RatchetState)
	if err := decodeJSON(b, st); err != nil {
		return nil, fmt.Errorf("store: decode state: %w", err)
	}
	return st, nil
}

// Create returns a new empty state for peer.
func (s *StateFileStore) Create(peer domain.X25519Public) *domain.RatchetState {
	return newState(peer, s.now())
}

// Save writes st atomically, replacing any previous record for the peer.
func (s *StateFileStore) Save(ctx context.Context, st *domain.RatchetState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(s.path(st.PeerIdentity), st, 0o600)
}

// Delete removes the record for peer. Deleting a missing record is not an error.
func (s *StateFileStore) Delete(ctx context.Context, peer domain.X25519Public) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(peer))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *StateFileStore) path(peer domain.X25519Public) string {
	return filepath.Join(s.dir, hex.EncodeToString(peer[:])+".json")
}

// Compile-time assertion that StateFileStore implements domain.StateStore.
var _ domain.StateStore = (*StateFileStore)(nil)
