package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"
)

// hkdfSalt is the fixed HKDF salt shared by every derivation.
var hkdfSalt = []byte("axolotld")

// Hash returns the SHA-512 digest of b.
func (p *Primitives) Hash(b []byte) []byte {
	sum := sha512.Sum512(b)
	return sum[:]
}

// HMAC returns HMAC-SHA256(key, data).
func (p *Primitives) HMAC(key, data []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(data)
	return m.Sum(nil)
}

// HKDF expands ikm into n bytes using HKDF-SHA256.
func (p *Primitives) HKDF(ikm []byte, info string, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, hkdfSalt, []byte(info)), out); err != nil {
		return nil, err
	}
	return out, nil
}
