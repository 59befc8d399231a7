package types

// Identity holds a long-term X25519 key pair.
type Identity struct {
	Public  X25519Public  `json:"public"`
	Private X25519Private `json:"private"`
}

// KeyPair returns the identity as a plain key pair.
func (id Identity) KeyPair() KeyPair {
	return KeyPair{Public: id.Public, Private: id.Private}
}
