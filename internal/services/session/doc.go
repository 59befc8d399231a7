// Package session runs the handshake and persists the resulting ratchet
// state.
//
// A server uses Respond for every incoming request; a fresh handshake always
// replaces the previous state for that peer. A client calls Request, sends
// the result, and hands the reply to Initiate.
package session
