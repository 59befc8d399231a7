// Package handshake implements the 3-DH key agreement that opens a session.
//
// # Roles
//
// Responder (long-lived identity B, fresh ephemerals B0 and B1):
//
//	dh1 = DH(B0, A)   dh2 = DH(B, A0)   dh3 = DH(B0, A0)
//
// Initiator (identity A, ephemeral A0):
//
//	dh1 = DH(A, B0)   dh2 = DH(A0, B)   dh3 = DH(A0, B0)
//
// The first two terms swap between roles so both sides hash the same
// concatenation. The responder sends first: it starts with the sending chain
// and B1 as its ratchet key. The initiator starts with the receiving chain and
// must ratchet before its first send.
//
// # Errors
//
// A malformed or low-order peer key yields an error wrapping
// domain.ErrHandshakeFailure. Nothing is retried.
package handshake
