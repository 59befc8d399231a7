package message

import (
	"context"

	"axolotld/internal/domain"
)

// Handler produces the reply to a decrypted request.
type Handler interface {
	Handle(ctx context.Context, peer domain.X25519Public, request []byte) ([]byte, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, peer domain.X25519Public, request []byte) ([]byte, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, peer domain.X25519Public, request []byte) ([]byte, error) {
	return f(ctx, peer, request)
}

// Echo answers every request with its own plaintext.
var Echo = HandlerFunc(func(_ context.Context, _ domain.X25519Public, request []byte) ([]byte, error) {
	return request, nil
})
