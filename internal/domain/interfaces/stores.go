package interfaces

import (
	"context"

	domaintypes "axolotld/internal/domain/types"
)

// IdentityStore persists the long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	HasIdentity() (bool, error)
}

// StateStore keeps one RatchetState per peer identity.
//
// Get returns ErrStateNotFound when no record exists. Returned states are
// owned by the caller; mutating them does not affect the store until Save.
type StateStore interface {
	Get(ctx context.Context, peer domaintypes.X25519Public) (*domaintypes.RatchetState, error)
	Create(peer domaintypes.X25519Public) *domaintypes.RatchetState
	Save(ctx context.Context, state *domaintypes.RatchetState) error
	Delete(ctx context.Context, peer domaintypes.X25519Public) error
}
