package types

import (
	"encoding/binary"
	"errors"
	"time"
)

// HeaderSize is the length of a plaintext message header.
const HeaderSize = 4 + 4 + KeySize

var errHeaderSize = errors.New("ratchet header: bad length")

// RatchetHeader is encrypted under a header key and sent with every message.
type RatchetHeader struct {
	MsgNumber     uint32
	PrevMsgNumber uint32
	RatchetPublic X25519Public
}

// Marshal encodes the header as msg_number || prev_msg_number || ratchet_pub,
// counters big-endian.
func (h RatchetHeader) Marshal() []byte {
	out := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(out[0:4], h.MsgNumber)
	binary.BigEndian.PutUint32(out[4:8], h.PrevMsgNumber)
	copy(out[8:], h.RatchetPublic[:])
	return out
}

// ParseRatchetHeader decodes a header produced by Marshal.
func ParseRatchetHeader(b []byte) (RatchetHeader, error) {
	var h RatchetHeader
	if len(b) != HeaderSize {
		return h, errHeaderSize
	}
	h.MsgNumber = binary.BigEndian.Uint32(b[0:4])
	h.PrevMsgNumber = binary.BigEndian.Uint32(b[4:8])
	copy(h.RatchetPublic[:], b[8:])
	return h, nil
}

// SkippedKey is a header/message key pair derived for a message that has not
// arrived yet.
type SkippedKey struct {
	Timestamp  time.Time `json:"timestamp"`
	HeaderKey  []byte    `json:"header_key"`
	MessageKey []byte    `json:"message_key"`
}

// Phase names where a session sits in its lifecycle.
type Phase int

const (
	// PhaseAwaitingFirstSend is the responder right after the handshake.
	PhaseAwaitingFirstSend Phase = iota
	// PhaseAwaitingFirstRecv is the initiator right after the handshake.
	PhaseAwaitingFirstRecv
	// PhaseSteady has current keys for both directions.
	PhaseSteady
	// PhaseRatchetPendingForSend must perform a DH ratchet on the next send.
	PhaseRatchetPendingForSend
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingFirstSend:
		return "awaiting-first-send"
	case PhaseAwaitingFirstRecv:
		return "awaiting-first-recv"
	case PhaseSteady:
		return "steady"
	case PhaseRatchetPendingForSend:
		return "ratchet-pending"
	default:
		return "unknown"
	}
}

// RatchetState is everything one side keeps about one peer relationship.
//
// Symmetric keys are nil when absent. SendRatchetPrivate is nil once it has
// been cleared after a receive-side ratchet.
type RatchetState struct {
	PeerIdentity  X25519Public `json:"peer_identity"`
	LocalIdentity X25519Public `json:"local_identity"`

	RootKey      []byte `json:"root_key"`
	SendChainKey []byte `json:"send_chain_key,omitempty"`
	RecvChainKey []byte `json:"recv_chain_key,omitempty"`

	SendHeaderKey     []byte `json:"send_header_key,omitempty"`
	RecvHeaderKey     []byte `json:"recv_header_key,omitempty"`
	NextSendHeaderKey []byte `json:"next_send_header_key,omitempty"`
	NextRecvHeaderKey []byte `json:"next_recv_header_key,omitempty"`

	SendRatchetPrivate *X25519Private `json:"send_ratchet_private,omitempty"`
	SendRatchetPublic  X25519Public   `json:"send_ratchet_public"`
	RecvRatchetPublic  X25519Public   `json:"recv_ratchet_public"`

	SendCounter         uint32 `json:"send_counter"`
	RecvCounter         uint32 `json:"recv_counter"`
	PreviousSendCounter uint32 `json:"previous_send_counter"`
	RatchetPending      bool   `json:"ratchet_pending"`

	SkippedKeys []SkippedKey `json:"skipped_keys,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Clone returns a deep copy that shares no buffers with s.
func (s *RatchetState) Clone() *RatchetState {
	c := *s
	c.RootKey = cloneBytes(s.RootKey)
	c.SendChainKey = cloneBytes(s.SendChainKey)
	c.RecvChainKey = cloneBytes(s.RecvChainKey)
	c.SendHeaderKey = cloneBytes(s.SendHeaderKey)
	c.RecvHeaderKey = cloneBytes(s.RecvHeaderKey)
	c.NextSendHeaderKey = cloneBytes(s.NextSendHeaderKey)
	c.NextRecvHeaderKey = cloneBytes(s.NextRecvHeaderKey)
	if s.SendRatchetPrivate != nil {
		k := *s.SendRatchetPrivate
		c.SendRatchetPrivate = &k
	}
	if s.SkippedKeys != nil {
		c.SkippedKeys = make([]SkippedKey, len(s.SkippedKeys))
		for i, sk := range s.SkippedKeys {
			c.SkippedKeys[i] = SkippedKey{
				Timestamp:  sk.Timestamp,
				HeaderKey:  cloneBytes(sk.HeaderKey),
				MessageKey: cloneBytes(sk.MessageKey),
			}
		}
	}
	return &c
}

// Phase reports the lifecycle phase derived from the key material present.
func (s *RatchetState) Phase() Phase {
	switch {
	case s.RatchetPending && s.SendChainKey == nil && s.RecvCounter == 0:
		return PhaseAwaitingFirstRecv
	case s.RatchetPending:
		return PhaseRatchetPendingForSend
	case s.RecvChainKey == nil && s.SendCounter == 0:
		return PhaseAwaitingFirstSend
	default:
		return PhaseSteady
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
