package crypto

import (
	"crypto/rand"
	"errors"
	"io"

	"axolotld/internal/domain"
)

// ErrAuthentication is returned by Open when the input does not verify.
var ErrAuthentication = errors.New("crypto: message authentication failed")

// Suite is the primitive library the protocol engines depend on.
type Suite interface {
	// GenerateDH returns a fresh X25519 key pair.
	GenerateDH() (domain.KeyPair, error)
	// DH returns the X25519 shared secret.
	DH(priv domain.X25519Private, pub domain.X25519Public) ([]byte, error)
	// Hash returns the SHA-512 digest of b.
	Hash(b []byte) []byte
	// HMAC returns HMAC-SHA256(key, data).
	HMAC(key, data []byte) []byte
	// HKDF expands ikm into n bytes under the fixed salt and info.
	HKDF(ikm []byte, info string, n int) ([]byte, error)
	// Seal encrypts plaintext under a fresh nonce and returns nonce || ciphertext.
	Seal(key, plaintext []byte) ([]byte, error)
	// Open reverses Seal, failing with ErrAuthentication.
	Open(key, sealed []byte) ([]byte, error)
}

// Primitives is the default Suite.
type Primitives struct {
	rand io.Reader
}

// NewSuite returns a Suite drawing randomness from r, or crypto/rand when r is nil.
func NewSuite(r io.Reader) *Primitives {
	if r == nil {
		r = rand.Reader
	}
	return &Primitives{rand: r}
}

// GenerateDH returns a fresh clamped X25519 key pair.
func (p *Primitives) GenerateDH() (domain.KeyPair, error) {
	priv, pub, err := GenerateX25519(p.rand)
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: pub, Private: priv}, nil
}

// DH computes X25519 Diffie–Hellman.
func (p *Primitives) DH(priv domain.X25519Private, pub domain.X25519Public) ([]byte, error) {
	out, err := DH(priv, pub)
	if err != nil {
		return nil, err
	}
	return out[:], nil
}

// Compile-time assertion that Primitives implements Suite.
var _ Suite = (*Primitives)(nil)
