// Package ratchet implements the Axolotl message ratchet with encrypted
// headers.
//
// Every message advances a one-way chain. When the direction of traffic flips
// the receiver mixes a fresh DH output into the root key, and sets the
// ratchet-pending flag so its next send ratchets as well.
//
// # Receive order
//
// Decrypt tries, in this order: every stored skipped key, the current
// receive header key, then the next receive header key (which triggers a DH
// ratchet). Once a header authenticates, a body failure is final.
//
// # Atomicity
//
// Encrypt and Decrypt work on a private copy of the state and copy it back
// only when the operation succeeds. A failed call leaves the state untouched.
//
// Concurrency: RatchetState is NOT safe for concurrent use. Callers must
// serialise access per peer.
package ratchet
