package kdf

import (
	"axolotld/internal/crypto"
	"axolotld/internal/domain"
)

const (
	handshakeInfo = "axolotld handshake"
	ratchetInfo   = "axolotld ratchet"
)

var (
	messageKeyInput = []byte("0")
	chainKeyInput   = []byte("1")
)

// HandshakeKeys is the output of the 3-DH handshake.
type HandshakeKeys struct {
	RootKey        []byte
	HeaderKey      []byte
	NextHeaderKey0 []byte
	NextHeaderKey1 []byte
	ChainKey       []byte
}

// RatchetKeys is the output of one DH ratchet step.
type RatchetKeys struct {
	RootKey       []byte
	NextHeaderKey []byte
	ChainKey      []byte
}

// DeriveHandshakeKeys derives the session keys from the three DH outputs.
// Both roles must pass the outputs in the same order.
func DeriveHandshakeKeys(s crypto.Suite, dh1, dh2, dh3 []byte) (HandshakeKeys, error) {
	ikm := make([]byte, 0, len(dh1)+len(dh2)+len(dh3))
	ikm = append(ikm, dh1...)
	ikm = append(ikm, dh2...)
	ikm = append(ikm, dh3...)
	digest := s.Hash(ikm)
	crypto.Wipe(ikm)

	okm, err := s.HKDF(digest, handshakeInfo, 5*domain.KeySize)
	crypto.Wipe(digest)
	if err != nil {
		return HandshakeKeys{}, err
	}
	k := split(okm, 5)
	return HandshakeKeys{
		RootKey:        k[0],
		HeaderKey:      k[1],
		NextHeaderKey0: k[2],
		NextHeaderKey1: k[3],
		ChainKey:       k[4],
	}, nil
}

// DeriveRatchetKeys mixes a ratchet DH output into the root key.
func DeriveRatchetKeys(s crypto.Suite, rootKey, dh []byte) (RatchetKeys, error) {
	ikm := s.HMAC(rootKey, dh)
	okm, err := s.HKDF(ikm, ratchetInfo, 3*domain.KeySize)
	crypto.Wipe(ikm)
	if err != nil {
		return RatchetKeys{}, err
	}
	k := split(okm, 3)
	return RatchetKeys{RootKey: k[0], NextHeaderKey: k[1], ChainKey: k[2]}, nil
}

// DeriveMessageKey advances a chain by one position.
func DeriveMessageKey(s crypto.Suite, chainKey []byte) (messageKey, nextChainKey []byte) {
	return s.HMAC(chainKey, messageKeyInput), s.HMAC(chainKey, chainKeyInput)
}

func split(okm []byte, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = okm[i*domain.KeySize : (i+1)*domain.KeySize : (i+1)*domain.KeySize]
	}
	return out
}
