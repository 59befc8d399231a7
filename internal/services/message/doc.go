// Package message encrypts and decrypts messages for established sessions.
//
// Every operation loads the peer's state, runs the ratchet on it and saves
// the result while holding that peer's lock. A failed operation saves
// nothing.
package message
