package types

// HandshakeRequest opens a session. Both keys are base64 encoded on the wire.
type HandshakeRequest struct {
	Identity   X25519Public `json:"identity"`
	Ephemeral0 X25519Public `json:"ephemeral0"`
}

// HandshakeReply carries the responder's identity and both ephemeral keys.
// Ephemeral1 is the responder's first sending ratchet key.
type HandshakeReply struct {
	Identity   X25519Public `json:"identity"`
	Ephemeral0 X25519Public `json:"ephemeral0"`
	Ephemeral1 X25519Public `json:"ephemeral1"`
}

// Envelope is one encrypted message. Header and Body are each
// nonce || ciphertext, sealed under different keys with their own nonce.
type Envelope struct {
	Header []byte `json:"header"`
	Body   []byte `json:"body"`
}

// MessageRequest is an envelope addressed from a peer identity.
type MessageRequest struct {
	Peer     X25519Public `json:"peer"`
	Envelope Envelope     `json:"envelope"`
}
