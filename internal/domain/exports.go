package domain

import (
	interfaces "axolotld/internal/domain/interfaces"
	types "axolotld/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Fingerprint      = types.Fingerprint
	Identity         = types.Identity
	KeyPair          = types.KeyPair
	X25519Public     = types.X25519Public
	X25519Private    = types.X25519Private
	HandshakeRequest = types.HandshakeRequest
	HandshakeReply   = types.HandshakeReply
	Envelope         = types.Envelope
	MessageRequest   = types.MessageRequest
	RatchetHeader    = types.RatchetHeader
	RatchetState     = types.RatchetState
	SkippedKey       = types.SkippedKey
	Phase            = types.Phase
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService = interfaces.IdentityService
	SessionService  = interfaces.SessionService
	MessageService  = interfaces.MessageService
	Client          = interfaces.Client
	IdentityStore   = interfaces.IdentityStore
	StateStore      = interfaces.StateStore
)

const (
	KeySize    = types.KeySize
	HeaderSize = types.HeaderSize
)

const (
	PhaseAwaitingFirstSend     = types.PhaseAwaitingFirstSend
	PhaseAwaitingFirstRecv     = types.PhaseAwaitingFirstRecv
	PhaseSteady                = types.PhaseSteady
	PhaseRatchetPendingForSend = types.PhaseRatchetPendingForSend
)

var (
	ParseX25519Public  = types.ParseX25519Public
	ParseRatchetHeader = types.ParseRatchetHeader
)
