package types

import (
	"encoding/base64"
	"fmt"
)

// KeySize is the length of every X25519 key and every symmetric key.
const KeySize = 32

// X25519Public is a Curve25519 public key.
type X25519Public [KeySize]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key is unset.
func (p X25519Public) IsZero() bool { return p == X25519Public{} }

// String returns the base64 form of the key.
func (p X25519Public) String() string { return base64.StdEncoding.EncodeToString(p[:]) }

// MarshalText encodes the key as standard base64.
func (p X25519Public) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a standard base64 key and rejects any other length.
func (p *X25519Public) UnmarshalText(text []byte) error {
	return decodeKey(text, p[:], "X25519 public")
}

// ParseX25519Public decodes a base64 public key.
func ParseX25519Public(s string) (X25519Public, error) {
	var p X25519Public
	err := p.UnmarshalText([]byte(s))
	return p, err
}

// X25519Private is a Curve25519 private key.
type X25519Private [KeySize]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// MarshalText encodes the key as standard base64.
func (k X25519Private) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(k[:])), nil
}

// UnmarshalText decodes a standard base64 key.
func (k *X25519Private) UnmarshalText(text []byte) error {
	return decodeKey(text, k[:], "X25519 private")
}

// KeyPair is an X25519 key pair.
type KeyPair struct {
	Public  X25519Public  `json:"public"`
	Private X25519Private `json:"private"`
}

func decodeKey(text []byte, dst []byte, what string) error {
	buf := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(buf, text)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%s: want %d bytes, got %d", what, len(dst), n)
	}
	copy(dst, buf[:n])
	return nil
}
