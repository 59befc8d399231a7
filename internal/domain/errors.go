package domain

import "errors"

// Failure classes surfaced by the protocol core. Lower layers wrap these so
// callers can classify with errors.Is.
var (
	// ErrNoSession means no completed handshake exists for the peer.
	ErrNoSession = errors.New("no session with peer")
	// ErrHandshakeFailure means a peer key was malformed or key agreement failed.
	ErrHandshakeFailure = errors.New("handshake failed")
	// ErrDecryptionFailure means a header or body did not authenticate.
	ErrDecryptionFailure = errors.New("decryption failed")
	// ErrInconsistentState means the stored state cannot accept the message
	// without breaking ratchet invariants. The session should be re-keyed.
	ErrInconsistentState = errors.New("inconsistent ratchet state")
	// ErrStorage wraps failures reported by a StateStore.
	ErrStorage = errors.New("storage failure")
	// ErrStateNotFound is returned by a StateStore for an unknown peer.
	ErrStateNotFound = errors.New("ratchet state not found")
)
