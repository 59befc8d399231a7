package handshake

import (
	"fmt"
	"time"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/protocol/kdf"
)

// ErrBadPeerKey is returned when a peer-supplied key cannot be used.
var ErrBadPeerKey = fmt.Errorf("%w: unusable peer key", domain.ErrHandshakeFailure)

// InitiatorKeys is the private material the initiator keeps between sending
// its request and receiving the reply.
type InitiatorKeys struct {
	Identity   domain.Identity
	Ephemeral0 domain.KeyPair
}

// NewRequest generates the initiator ephemeral and the request to send.
func NewRequest(s crypto.Suite, id domain.Identity) (InitiatorKeys, domain.HandshakeRequest, error) {
	eph0, err := s.GenerateDH()
	if err != nil {
		return InitiatorKeys{}, domain.HandshakeRequest{}, fmt.Errorf("%w: %v", domain.ErrHandshakeFailure, err)
	}
	keys := InitiatorKeys{Identity: id, Ephemeral0: eph0}
	return keys, domain.HandshakeRequest{Identity: id.Public, Ephemeral0: eph0.Public}, nil
}

// Respond runs the responder role and returns the new state and the reply.
func Respond(
	s crypto.Suite,
	id domain.Identity,
	req domain.HandshakeRequest,
	now time.Time,
) (*domain.RatchetState, domain.HandshakeReply, error) {
	if req.Identity.IsZero() || req.Ephemeral0.IsZero() {
		return nil, domain.HandshakeReply{}, ErrBadPeerKey
	}
	eph0, err := s.GenerateDH()
	if err != nil {
		return nil, domain.HandshakeReply{}, fmt.Errorf("%w: %v", domain.ErrHandshakeFailure, err)
	}
	defer crypto.WipePrivate(&eph0.Private)
	eph1, err := s.GenerateDH()
	if err != nil {
		return nil, domain.HandshakeReply{}, fmt.Errorf("%w: %v", domain.ErrHandshakeFailure, err)
	}

	keys, err := agree(s,
		dhTerm{eph0.Private, req.Identity},
		dhTerm{id.Private, req.Ephemeral0},
		dhTerm{eph0.Private, req.Ephemeral0},
	)
	if err != nil {
		return nil, domain.HandshakeReply{}, err
	}

	sendRatchet := eph1.Private
	st := &domain.RatchetState{
		PeerIdentity:       req.Identity,
		LocalIdentity:      id.Public,
		RootKey:            keys.RootKey,
		SendChainKey:       keys.ChainKey,
		SendHeaderKey:      keys.HeaderKey,
		NextRecvHeaderKey:  keys.NextHeaderKey0,
		NextSendHeaderKey:  keys.NextHeaderKey1,
		SendRatchetPrivate: &sendRatchet,
		SendRatchetPublic:  eph1.Public,
		Created:            now,
		Updated:            now,
	}
	reply := domain.HandshakeReply{
		Identity:   id.Public,
		Ephemeral0: eph0.Public,
		Ephemeral1: eph1.Public,
	}
	return st, reply, nil
}

// Initiate runs the initiator role and returns the shared keys. The caller
// assembles its state from them, see NewInitiatorState.
func Initiate(s crypto.Suite, ours InitiatorKeys, reply domain.HandshakeReply) (kdf.HandshakeKeys, error) {
	if reply.Identity.IsZero() || reply.Ephemeral0.IsZero() || reply.Ephemeral1.IsZero() {
		return kdf.HandshakeKeys{}, ErrBadPeerKey
	}
	return agree(s,
		dhTerm{ours.Identity.Private, reply.Ephemeral0},
		dhTerm{ours.Ephemeral0.Private, reply.Identity},
		dhTerm{ours.Ephemeral0.Private, reply.Ephemeral0},
	)
}

// NewInitiatorState builds the initiator's state from the handshake keys.
// The responder sends first, so the chain key becomes the receiving chain and
// the initiator must ratchet before it sends.
func NewInitiatorState(
	ours InitiatorKeys,
	reply domain.HandshakeReply,
	keys kdf.HandshakeKeys,
	now time.Time,
) *domain.RatchetState {
	return &domain.RatchetState{
		PeerIdentity:      reply.Identity,
		LocalIdentity:     ours.Identity.Public,
		RootKey:           keys.RootKey,
		RecvChainKey:      keys.ChainKey,
		RecvHeaderKey:     keys.HeaderKey,
		NextSendHeaderKey: keys.NextHeaderKey0,
		NextRecvHeaderKey: keys.NextHeaderKey1,
		RecvRatchetPublic: reply.Ephemeral1,
		RatchetPending:    true,
		Created:           now,
		Updated:           now,
	}
}

type dhTerm struct {
	priv domain.X25519Private
	pub  domain.X25519Public
}

func agree(s crypto.Suite, t1, t2, t3 dhTerm) (kdf.HandshakeKeys, error) {
	var out [3][]byte
	for i, t := range [3]dhTerm{t1, t2, t3} {
		secret, err := s.DH(t.priv, t.pub)
		if err != nil {
			return kdf.HandshakeKeys{}, fmt.Errorf("%w: dh%d: %v", ErrBadPeerKey, i+1, err)
		}
		out[i] = secret
	}
	defer crypto.Wipe(out[0], out[1], out[2])

	keys, err := kdf.DeriveHandshakeKeys(s, out[0], out[1], out[2])
	if err != nil {
		return kdf.HandshakeKeys{}, fmt.Errorf("%w: %v", domain.ErrHandshakeFailure, err)
	}
	return keys, nil
}
