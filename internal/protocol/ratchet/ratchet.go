package ratchet

import (
	"errors"
	"fmt"
	"time"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/protocol/kdf"
)

// DefaultMaxSkip bounds how many message keys one receive may derive ahead.
const DefaultMaxSkip = 1000

var (
	// ErrDecrypt is returned when no key opens the message.
	ErrDecrypt = fmt.Errorf("ratchet: %w", domain.ErrDecryptionFailure)
	// ErrTooManySkipped is returned when a header claims a counter too far ahead.
	ErrTooManySkipped = fmt.Errorf("ratchet: too many skipped messages: %w", domain.ErrDecryptionFailure)
	// ErrRatchetPending is returned when a message arrives under the next
	// header key while our own ratchet is still pending.
	ErrRatchetPending = fmt.Errorf("ratchet: next header key used while ratchet pending: %w", domain.ErrInconsistentState)
	// ErrMissingKeys is returned when the state lacks key material it needs.
	ErrMissingKeys = fmt.Errorf("ratchet: missing key material: %w", domain.ErrInconsistentState)
)

// Engine encrypts and decrypts messages over a RatchetState.
type Engine struct {
	suite   crypto.Suite
	maxSkip uint32
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSkip sets the skipped-key bound for a single receive.
func WithMaxSkip(n uint32) Option {
	return func(e *Engine) {
		e.maxSkip = n
	}
}

// WithClock sets the time source used to stamp skipped keys.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New returns an Engine using suite for every primitive.
func New(suite crypto.Suite, opts ...Option) *Engine {
	e := &Engine{suite: suite, maxSkip: DefaultMaxSkip, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Encrypt seals plaintext for the peer and advances st.
func (e *Engine) Encrypt(st *domain.RatchetState, plaintext []byte) (domain.Envelope, error) {
	w := st.Clone()

	if w.RatchetPending {
		if err := e.ratchetForSend(w); err != nil {
			return domain.Envelope{}, err
		}
	}
	if w.SendChainKey == nil || w.SendHeaderKey == nil {
		return domain.Envelope{}, ErrMissingKeys
	}

	mk, nextCK := kdf.DeriveMessageKey(e.suite, w.SendChainKey)
	defer crypto.Wipe(mk)

	header := domain.RatchetHeader{
		MsgNumber:     w.SendCounter,
		PrevMsgNumber: w.PreviousSendCounter,
		RatchetPublic: w.SendRatchetPublic,
	}
	sealedHeader, err := e.suite.Seal(w.SendHeaderKey, header.Marshal())
	if err != nil {
		return domain.Envelope{}, err
	}
	sealedBody, err := e.suite.Seal(mk, plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}

	w.SendChainKey = nextCK
	w.SendCounter++
	w.Updated = e.now()
	commit(st, w)
	return domain.Envelope{Header: sealedHeader, Body: sealedBody}, nil
}

func (e *Engine) ratchetForSend(w *domain.RatchetState) error {
	if w.NextSendHeaderKey == nil || w.RecvRatchetPublic.IsZero() {
		return ErrMissingKeys
	}
	kp, err := e.suite.GenerateDH()
	if err != nil {
		return err
	}
	dh, err := e.suite.DH(kp.Private, w.RecvRatchetPublic)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingKeys, err)
	}
	defer crypto.Wipe(dh)
	rk, err := kdf.DeriveRatchetKeys(e.suite, w.RootKey, dh)
	if err != nil {
		return err
	}

	crypto.WipePrivate(w.SendRatchetPrivate)
	w.SendHeaderKey = w.NextSendHeaderKey
	w.RootKey = rk.RootKey
	w.NextSendHeaderKey = rk.NextHeaderKey
	w.SendChainKey = rk.ChainKey
	w.SendRatchetPrivate = &kp.Private
	w.SendRatchetPublic = kp.Public
	w.PreviousSendCounter = w.SendCounter
	w.SendCounter = 0
	w.RatchetPending = false
	return nil
}

// Decrypt opens env and advances st. On any error st is unchanged.
func (e *Engine) Decrypt(st *domain.RatchetState, env domain.Envelope) ([]byte, error) {
	w := st.Clone()

	if pt, ok := e.trySkipped(w, env); ok {
		w.Updated = e.now()
		commit(st, w)
		return pt, nil
	}

	pt, err := e.tryCurrent(w, env)
	if err == nil {
		w.Updated = e.now()
		commit(st, w)
		return pt, nil
	}
	if !errors.Is(err, errHeaderMismatch) {
		return nil, err
	}

	if pt, err = e.tryNext(w, env); err != nil {
		return nil, err
	}
	w.Updated = e.now()
	commit(st, w)
	return pt, nil
}

// errHeaderMismatch means the current header key did not open the header and
// the next header key should be tried.
var errHeaderMismatch = errors.New("ratchet: header key mismatch")

func (e *Engine) trySkipped(w *domain.RatchetState, env domain.Envelope) ([]byte, bool) {
	for i, sk := range w.SkippedKeys {
		if _, err := e.suite.Open(sk.HeaderKey, env.Header); err != nil {
			continue
		}
		pt, err := e.suite.Open(sk.MessageKey, env.Body)
		if err != nil {
			continue
		}
		crypto.Wipe(sk.MessageKey)
		w.SkippedKeys = append(w.SkippedKeys[:i:i], w.SkippedKeys[i+1:]...)
		return pt, true
	}
	return nil, false
}

func (e *Engine) tryCurrent(w *domain.RatchetState, env domain.Envelope) ([]byte, error) {
	if w.RecvHeaderKey == nil {
		return nil, errHeaderMismatch
	}
	raw, err := e.suite.Open(w.RecvHeaderKey, env.Header)
	if err != nil {
		return nil, errHeaderMismatch
	}
	header, err := domain.ParseRatchetHeader(raw)
	if err != nil {
		return nil, ErrDecrypt
	}
	if w.RecvChainKey == nil {
		return nil, ErrMissingKeys
	}
	if header.MsgNumber < w.RecvCounter {
		// Already consumed, and not among the skipped keys.
		return nil, ErrDecrypt
	}

	st, err := e.stage(w.RecvHeaderKey, w.RecvChainKey, w.RecvCounter, header.MsgNumber, false)
	if err != nil {
		return nil, err
	}
	pt, err := e.suite.Open(st.messageKey, env.Body)
	crypto.Wipe(st.messageKey)
	if err != nil {
		return nil, ErrDecrypt
	}

	w.SkippedKeys = append(w.SkippedKeys, st.keys...)
	w.RecvChainKey = st.chainKey
	w.RecvCounter = header.MsgNumber + 1
	return pt, nil
}

func (e *Engine) tryNext(w *domain.RatchetState, env domain.Envelope) ([]byte, error) {
	if w.RatchetPending {
		return nil, ErrRatchetPending
	}
	if w.NextRecvHeaderKey == nil {
		return nil, ErrDecrypt
	}
	raw, err := e.suite.Open(w.NextRecvHeaderKey, env.Header)
	if err != nil {
		return nil, ErrDecrypt
	}
	header, err := domain.ParseRatchetHeader(raw)
	if err != nil {
		return nil, ErrDecrypt
	}
	if w.SendRatchetPrivate == nil {
		return nil, ErrMissingKeys
	}

	var old staged
	if w.RecvChainKey != nil && header.PrevMsgNumber >= w.RecvCounter {
		old, err = e.stage(w.RecvHeaderKey, w.RecvChainKey, w.RecvCounter, header.PrevMsgNumber, true)
		if err != nil {
			return nil, err
		}
		crypto.Wipe(old.messageKey)
	}

	dh, err := e.suite.DH(*w.SendRatchetPrivate, header.RatchetPublic)
	if err != nil {
		return nil, ErrDecrypt
	}
	rk, err := kdf.DeriveRatchetKeys(e.suite, w.RootKey, dh)
	crypto.Wipe(dh)
	if err != nil {
		return nil, err
	}

	cur, err := e.stage(w.NextRecvHeaderKey, rk.ChainKey, 0, header.MsgNumber, false)
	if err != nil {
		return nil, err
	}
	pt, err := e.suite.Open(cur.messageKey, env.Body)
	crypto.Wipe(cur.messageKey)
	if err != nil {
		return nil, ErrDecrypt
	}

	w.SkippedKeys = append(w.SkippedKeys, old.keys...)
	w.SkippedKeys = append(w.SkippedKeys, cur.keys...)
	w.RootKey = rk.RootKey
	w.RecvHeaderKey = w.NextRecvHeaderKey
	w.NextRecvHeaderKey = rk.NextHeaderKey
	w.RecvRatchetPublic = header.RatchetPublic
	w.RecvChainKey = cur.chainKey
	w.RecvCounter = header.MsgNumber + 1
	crypto.WipePrivate(w.SendRatchetPrivate)
	w.SendRatchetPrivate = nil
	w.RatchetPending = true
	return pt, nil
}

// commit copies the working state over the caller's state.
func commit(dst, w *domain.RatchetState) {
	*dst = *w
}
