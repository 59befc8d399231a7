// Package kdf holds the three key derivations of the protocol.
//
// Handshake: SHA-512 over dh1 || dh2 || dh3, then HKDF into root key, header
// key, two next header keys and a chain key. Ratchet: HMAC(root, dh), then
// HKDF into root key, next header key and chain key under a different info
// string. Chain step: HMAC(ck, "0") is the message key and HMAC(ck, "1") the
// next chain key.
package kdf
