package interfaces

import (
	"context"

	domaintypes "axolotld/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects the local identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// SessionService runs the handshake in either role and persists the result.
type SessionService interface {
	Respond(
		ctx context.Context,
		req domaintypes.HandshakeRequest,
	) (domaintypes.HandshakeReply, error)
	Initiate(
		ctx context.Context,
		reply domaintypes.HandshakeReply,
	) (*domaintypes.RatchetState, error)
	Request() (domaintypes.HandshakeRequest, error)
}

// MessageService encrypts and decrypts messages for a peer, one operation
// per peer at a time.
type MessageService interface {
	Send(
		ctx context.Context,
		peer domaintypes.X25519Public,
		plaintext []byte,
	) (domaintypes.Envelope, error)
	Receive(
		ctx context.Context,
		peer domaintypes.X25519Public,
		envelope domaintypes.Envelope,
	) ([]byte, error)
}

// Client talks to a remote responder.
type Client interface {
	Handshake(
		ctx context.Context,
		req domaintypes.HandshakeRequest,
	) (domaintypes.HandshakeReply, error)
	Message(
		ctx context.Context,
		req domaintypes.MessageRequest,
	) (domaintypes.Envelope, error)
}
