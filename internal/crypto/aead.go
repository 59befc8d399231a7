package crypto

import (
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize is the length of the nonce prefix on every sealed message.
const NonceSize = chacha20poly1305.NonceSizeX

// Seal encrypts plaintext with XChaCha20-Poly1305 under key.
func (p *Primitives) Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(p.rand, out); err != nil {
		return nil, err
	}
	return aead.Seal(out, out[:NonceSize], plaintext, nil), nil
}

// Open decrypts a value produced by Seal. Any malformed input, wrong key or
// tampering yields ErrAuthentication.
func (p *Primitives) Open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrAuthentication
	}
	if len(sealed) < NonceSize+aead.Overhead() {
		return nil, ErrAuthentication
	}
	pt, err := aead.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return pt, nil
}
