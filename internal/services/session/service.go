package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/metrics"
	"axolotld/internal/protocol/handshake"
	"axolotld/internal/services/peerlock"
)

// ErrNoPendingRequest is returned by Initiate without a prior Request.
var ErrNoPendingRequest = fmt.Errorf("session: no outstanding handshake request: %w", domain.ErrHandshakeFailure)

// Service performs the handshake in either role.
//
// It holds the local identity for the life of the process and persists
// every established session through the StateStore.
type Service struct {
	suite    crypto.Suite
	identity domain.Identity
	states   domain.StateStore
	locks    *peerlock.Locks
	metrics  *metrics.Metrics
	log      *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending *handshake.InitiatorKeys
}

// Config carries the collaborators of a Service. Metrics and Now are optional.
type Config struct {
	Suite    crypto.Suite
	Identity domain.Identity
	States   domain.StateStore
	Locks    *peerlock.Locks
	Metrics  *metrics.Metrics
	Log      *logging.Logger
	Now      func() time.Time
}

// New constructs a session Service.
func New(cfg Config) *Service {
	s := &Service{
		suite:    cfg.Suite,
		identity: cfg.Identity,
		states:   cfg.States,
		locks:    cfg.Locks,
		metrics:  cfg.Metrics,
		log:      cfg.Log,
		now:      cfg.Now,
	}
	if s.locks == nil {
		s.locks = peerlock.New()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logging.MustGetLogger("session")
	}
	return s
}

// Respond answers a handshake request and stores the new state, replacing
// any previous session with the same peer.
func (s *Service) Respond(ctx context.Context, req domain.HandshakeRequest) (domain.HandshakeReply, error) {
	st, reply, err := handshake.Respond(s.suite, s.identity, req, s.now())
	if err != nil {
		s.fail("respond", req.Identity, err)
		return domain.HandshakeReply{}, err
	}

	unlock := s.locks.Lock(req.Identity)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.HandshakeReply{}, err
	}
	if err := s.states.Save(ctx, st); err != nil {
		err = fmt.Errorf("session: save: %w: %v", domain.ErrStorage, err)
		s.fail("respond", req.Identity, err)
		return domain.HandshakeReply{}, err
	}

	s.metrics.Handshake()
	s.log.Infof("Handshake with %s complete (responder)", crypto.Fingerprint(req.Identity))
	return reply, nil
}

// Request prepares a handshake request. The private half is kept until
// Initiate consumes it; a second Request replaces the first.
func (s *Service) Request() (domain.HandshakeRequest, error) {
	keys, req, err := handshake.NewRequest(s.suite, s.identity)
	if err != nil {
		return domain.HandshakeRequest{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		crypto.WipePrivate(&s.pending.Ephemeral0.Private)
	}
	s.pending = &keys
	return req, nil
}

// Initiate completes the handshake from the responder's reply and stores
// the initiator state.
func (s *Service) Initiate(ctx context.Context, reply domain.HandshakeReply) (*domain.RatchetState, error) {
	s.mu.Lock()
	keys := s.pending
	s.pending = nil
	s.mu.Unlock()
	if keys == nil {
		return nil, ErrNoPendingRequest
	}
	defer crypto.WipePrivate(&keys.Ephemeral0.Private)

	hk, err := handshake.Initiate(s.suite, *keys, reply)
	if err != nil {
		s.fail("initiate", reply.Identity, err)
		return nil, err
	}
	st := handshake.NewInitiatorState(*keys, reply, hk, s.now())

	unlock := s.locks.Lock(reply.Identity)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.states.Save(ctx, st); err != nil {
		err = fmt.Errorf("session: save: %w: %v", domain.ErrStorage, err)
		s.fail("initiate", reply.Identity, err)
		return nil, err
	}

	s.metrics.Handshake()
	s.log.Infof("Handshake with %s complete (initiator)", crypto.Fingerprint(reply.Identity))
	return st.Clone(), nil
}

// Identity returns the local public identity.
func (s *Service) Identity() domain.X25519Public { return s.identity.Public }

func (s *Service) fail(op string, peer domain.X25519Public, err error) {
	s.metrics.Failure(metrics.ClassOf(err))
	if errors.Is(err, domain.ErrStorage) {
		s.log.Errorf("%s %s: %v", op, crypto.Fingerprint(peer), err)
		return
	}
	s.log.Debugf("%s %s: %v", op, crypto.Fingerprint(peer), err)
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
