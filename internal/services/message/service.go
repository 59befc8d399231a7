package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/op/go-logging.v1"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/metrics"
	"axolotld/internal/protocol/ratchet"
	"axolotld/internal/services/peerlock"
)

// Service sends and receives messages with the Message Ratchet Engine.
type Service struct {
	engine     *ratchet.Engine
	states     domain.StateStore
	locks      *peerlock.Locks
	metrics    *metrics.Metrics
	log        *logging.Logger
	now        func() time.Time
	skippedTTL time.Duration
}

// Config carries the collaborators of a Service. SkippedKeyMaxAge of zero
// keeps skipped keys until they are used or the session is replaced.
type Config struct {
	Engine           *ratchet.Engine
	States           domain.StateStore
	Locks            *peerlock.Locks
	Metrics          *metrics.Metrics
	Log              *logging.Logger
	Now              func() time.Time
	SkippedKeyMaxAge time.Duration
}

// New constructs a message Service.
func New(cfg Config) *Service {
	s := &Service{
		engine:     cfg.Engine,
		states:     cfg.States,
		locks:      cfg.Locks,
		metrics:    cfg.Metrics,
		log:        cfg.Log,
		now:        cfg.Now,
		skippedTTL: cfg.SkippedKeyMaxAge,
	}
	if s.locks == nil {
		s.locks = peerlock.New()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logging.MustGetLogger("message")
	}
	return s
}

// Send encrypts plaintext for peer.
func (s *Service) Send(ctx context.Context, peer domain.X25519Public, plaintext []byte) (domain.Envelope, error) {
	unlock := s.locks.Lock(peer)
	defer unlock()

	st, err := s.load(ctx, peer)
	if err != nil {
		return domain.Envelope{}, s.fail("send", peer, err)
	}
	advancing := st.RatchetPending

	env, err := s.engine.Encrypt(st, plaintext)
	if err != nil {
		return domain.Envelope{}, s.fail("send", peer, err)
	}
	if err := s.save(ctx, st); err != nil {
		return domain.Envelope{}, s.fail("send", peer, err)
	}

	if advancing {
		s.metrics.RatchetAdvanced()
	}
	s.metrics.Sent()
	return env, nil
}

// Receive decrypts env from peer.
func (s *Service) Receive(ctx context.Context, peer domain.X25519Public, env domain.Envelope) ([]byte, error) {
	unlock := s.locks.Lock(peer)
	defer unlock()

	st, err := s.load(ctx, peer)
	if err != nil {
		return nil, s.fail("receive", peer, err)
	}
	prevRatchet := st.RecvRatchetPublic

	pt, err := s.engine.Decrypt(st, env)
	if err != nil {
		return nil, s.fail("receive", peer, err)
	}
	if err := s.save(ctx, st); err != nil {
		return nil, s.fail("receive", peer, err)
	}

	if st.RecvRatchetPublic != prevRatchet {
		s.metrics.RatchetAdvanced()
	}
	s.metrics.Received()
	s.metrics.SkippedKeys(len(st.SkippedKeys))
	return pt, nil
}

// Exchange decrypts a request, passes it to h and encrypts the answer. A
// failed handler leaves the received message consumed.
func (s *Service) Exchange(ctx context.Context, peer domain.X25519Public, env domain.Envelope, h Handler) (domain.Envelope, error) {
	pt, err := s.Receive(ctx, peer, env)
	if err != nil {
		return domain.Envelope{}, err
	}
	resp, err := h.Handle(ctx, peer, pt)
	if err != nil {
		s.log.Warningf("handler for %s: %v", crypto.Fingerprint(peer), err)
		return domain.Envelope{}, err
	}
	return s.Send(ctx, peer, resp)
}

// Close removes the session with peer.
func (s *Service) Close(ctx context.Context, peer domain.X25519Public) error {
	unlock := s.locks.Lock(peer)
	defer unlock()

	if err := s.states.Delete(ctx, peer); err != nil {
		return fmt.Errorf("message: delete: %w: %v", domain.ErrStorage, err)
	}
	s.log.Infof("Session with %s closed", crypto.Fingerprint(peer))
	return nil
}

func (s *Service) load(ctx context.Context, peer domain.X25519Public) (*domain.RatchetState, error) {
	st, err := s.states.Get(ctx, peer)
	switch {
	case errors.Is(err, domain.ErrStateNotFound):
		return nil, fmt.Errorf("message: %w", domain.ErrNoSession)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("message: load: %w: %v", domain.ErrStorage, err)
	}

	if s.skippedTTL > 0 {
		if n := ratchet.PruneSkippedKeys(st, s.now().Add(-s.skippedTTL)); n > 0 {
			s.log.Debugf("Pruned %d expired skipped keys for %s", n, crypto.Fingerprint(peer))
		}
	}
	return st, nil
}

func (s *Service) save(ctx context.Context, st *domain.RatchetState) error {
	// A canceled operation must not leave a half-advanced session behind.
	if err := ctx.Err(); err != nil {
		return err
	}
	st.Updated = s.now()
	if err := s.states.Save(ctx, st); err != nil {
		return fmt.Errorf("message: save: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *Service) fail(op string, peer domain.X25519Public, err error) error {
	s.metrics.Failure(metrics.ClassOf(err))
	fp := crypto.Fingerprint(peer)
	switch {
	case errors.Is(err, domain.ErrInconsistentState):
		s.log.Warningf("%s %s: %v", op, fp, err)
	case errors.Is(err, domain.ErrStorage):
		s.log.Errorf("%s %s: %v", op, fp, err)
	default:
		s.log.Debugf("%s %s: %v", op, fp, err)
	}
	return err
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
