package app

import (
	"fmt"
	"os"

	"gopkg.in/op/go-logging.v1"

	"axolotld/internal/config"
	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/log"
	"axolotld/internal/metrics"
	"axolotld/internal/protocol/ratchet"
	identitysvc "axolotld/internal/services/identity"
	messagesvc "axolotld/internal/services/message"
	"axolotld/internal/services/peerlock"
	sessionsvc "axolotld/internal/services/session"
	"axolotld/internal/store"
	"axolotld/internal/transport"
)

// Wire bundles all stores, services, and the transport for the server.
type Wire struct {
	Config    *config.Config
	Logs      *log.Backend
	Identity  domain.Identity
	IDs       *identitysvc.Service
	States    domain.StateStore
	Sessions  *sessionsvc.Service
	Messages  *messagesvc.Service
	Metrics   *metrics.Metrics
	Transport *transport.Server

	log    *logging.Logger
	closer func() error
}

// NewWire constructs the dependency graph from cfg. The passphrase unlocks
// the stored identity.
func NewWire(cfg *config.Config, passphrase string) (*Wire, error) {
	logs, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return nil, err
	}
	w := &Wire{Config: cfg, Logs: logs, log: logs.GetLogger("app")}

	ids := identitysvc.New(store.NewIdentityFileStore(cfg.Server.DataDir))
	id, err := ids.LoadIdentity(passphrase)
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("load identity: %w", err)
	}
	w.IDs = ids
	w.Identity = id

	if err := w.openStates(); err != nil {
		logs.Close()
		return nil, err
	}

	if cfg.Metrics.Enable {
		w.Metrics = metrics.New()
	}

	suite := crypto.NewSuite(nil)
	locks := peerlock.New()
	w.Sessions = sessionsvc.New(sessionsvc.Config{
		Suite:    suite,
		Identity: id,
		States:   w.States,
		Locks:    locks,
		Metrics:  w.Metrics,
		Log:      logs.GetLogger("session"),
	})
	w.Messages = messagesvc.New(messagesvc.Config{
		Engine:           ratchet.New(suite, ratchet.WithMaxSkip(uint32(cfg.Ratchet.MaxSkip))),
		States:           w.States,
		Locks:            locks,
		Metrics:          w.Metrics,
		Log:              logs.GetLogger("message"),
		SkippedKeyMaxAge: cfg.Ratchet.MaxAge(),
	})
	w.Transport = transport.NewServer(w.Sessions, w.Messages, nil, w.Metrics, logs.GetLogger("transport"))

	w.log.Noticef("Identity %s loaded, %s state backend", crypto.Fingerprint(id.Public), cfg.Storage.Backend)
	return w, nil
}

func (w *Wire) openStates() error {
	cfg := w.Config
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		w.States = store.NewMemoryStateStore()
	case config.BackendFile:
		s, err := store.NewStateFileStore(cfg.Server.DataDir)
		if err != nil {
			return err
		}
		w.States = s
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.Server.DataDir, 0o700); err != nil {
			return err
		}
		s, err := store.OpenBoltStateStore(cfg.StatePath())
		if err != nil {
			return err
		}
		w.States = s
		w.closer = s.Close
	default:
		return fmt.Errorf("app: unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

// Close releases the state store and the log file.
func (w *Wire) Close() error {
	var err error
	if w.closer != nil {
		err = w.closer()
	}
	if lerr := w.Logs.Close(); err == nil {
		err = lerr
	}
	return err
}
