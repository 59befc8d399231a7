// Package crypto exposes the primitives used by the handshake and ratchet.
//
// Contents
//
//   - Suite, the injectable primitive set (X25519 agreement, SHA-512,
//     HMAC-SHA256, HKDF-SHA256, XChaCha20-Poly1305)
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Sealed format
//
// Seal prepends a fresh random 24-byte nonce to the ciphertext and tag. Open
// expects exactly that layout. Headers and bodies are sealed independently,
// each with its own nonce.
//
// # Notes
//
// Callers should treat returned secrets as sensitive and rely on Wipe when
// practical to reduce lifetime in memory.
package crypto
