package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"axolotld/internal/domain"
)

const (
	statesBucket   = "states"
	metadataBucket = "metadata"
	versionKey     = "version"
	boltVersion    = 0
)

// Timestamps keep nanosecond precision so skipped key ages survive a reload.
var cborEnc, _ = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()

// BoltStateStore persists ratchet states in a bbolt database keyed by the
// peer's identity public key. Records are cbor encoded.
type BoltStateStore struct {
	sync.Mutex

	db  *bolt.DB
	now func() time.Time
}

// OpenBoltStateStore creates (or loads) a state database at path.
func OpenBoltStateStore(path string) (*BoltStateStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}
		if _, err = tx.CreateBucketIfNotExists([]byte(statesBucket)); err != nil {
			return err
		}

		if b := bkt.Get([]byte(versionKey)); b != nil {
			if len(b) != 1 || b[0] != boltVersion {
				return fmt.Errorf("store: incompatible database version: %v", b)
			}
			return nil
		}
		return bkt.Put([]byte(versionKey), []byte{boltVersion})
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStateStore{db: db, now: time.Now}, nil
}

// Get loads and decodes the state for peer.
func (s *BoltStateStore) Get(ctx context.Context, peer domain.X25519Public) (*domain.RatchetState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(statesBucket))
		// Bolt values are only valid for the life of the transaction.
		if v := bkt.Get(peer[:]); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.ErrStateNotFound
	}

	st := new(domain.RatchetState)
	if err := cbor.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("store: decode state: %w", err)
	}
	return st, nil
}

// Create returns a new empty state for peer.
func (s *BoltStateStore) Create(peer domain.X25519Public) *domain.RatchetState {
	return newState(peer, s.now())
}

// Save encodes st and replaces the record for its peer.
func (s *BoltStateStore) Save(ctx context.Context, st *domain.RatchetState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := cborEnc.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(statesBucket)).Put(st.PeerIdentity[:], raw)
	})
}

// Delete removes the record for peer.
func (s *BoltStateStore) Delete(ctx context.Context, peer domain.X25519Public) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(statesBucket)).Delete(peer[:])
	})
}

// Close flushes and closes the database.
func (s *BoltStateStore) Close() error {
	s.Lock()
	defer s.Unlock()

	if s.db == nil {
		return nil
	}
	_ = s.db.Sync()
	err := s.db.Close()
	s.db = nil
	return err
}

// Compile-time assertion that BoltStateStore implements domain.StateStore.
var _ domain.StateStore = (*BoltStateStore)(nil)
