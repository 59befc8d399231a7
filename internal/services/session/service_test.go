package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/store"
)

type failingStore struct{ *store.MemoryStateStore }

func (failingStore) Save(context.Context, *domain.RatchetState) error { return errors.New("disk full") }

func newIdentity(t *testing.T, s crypto.Suite) domain.Identity {
	t.Helper()
	kp, err := s.GenerateDH()
	require.NoError(t, err)
	return domain.Identity{Public: kp.Public, Private: kp.Private}
}

func TestHandshake_BothRoles(t *testing.T) {
	ctx := context.Background()
	suite := crypto.NewSuite(nil)

	serverStates := store.NewMemoryStateStore()
	clientStates := store.NewMemoryStateStore()
	server := New(Config{Suite: suite, Identity: newIdentity(t, suite), States: serverStates})
	client := New(Config{Suite: suite, Identity: newIdentity(t, suite), States: clientStates})

	req, err := client.Request()
	require.NoError(t, err)
	reply, err := server.Respond(ctx, req)
	require.NoError(t, err)
	cst, err := client.Initiate(ctx, reply)
	require.NoError(t, err)

	sst, err := serverStates.Get(ctx, client.Identity())
	require.NoError(t, err)
	stored, err := clientStates.Get(ctx, server.Identity())
	require.NoError(t, err)

	assert.Equal(t, sst.RootKey, cst.RootKey)
	assert.Equal(t, sst.SendChainKey, cst.RecvChainKey)
	assert.Equal(t, sst.SendHeaderKey, cst.RecvHeaderKey)
	assert.Equal(t, domain.PhaseAwaitingFirstSend, sst.Phase())
	assert.Equal(t, domain.PhaseAwaitingFirstRecv, stored.Phase())

	// The pending request is consumed.
	_, err = client.Initiate(ctx, reply)
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestRespond_ReplacesPreviousSession(t *testing.T) {
	ctx := context.Background()
	suite := crypto.NewSuite(nil)
	states := store.NewMemoryStateStore()
	server := New(Config{Suite: suite, Identity: newIdentity(t, suite), States: states})
	client := New(Config{Suite: suite, Identity: newIdentity(t, suite), States: store.NewMemoryStateStore()})

	req, err := client.Request()
	require.NoError(t, err)
	_, err = server.Respond(ctx, req)
	require.NoError(t, err)
	first, err := states.Get(ctx, client.Identity())
	require.NoError(t, err)

	req, err = client.Request()
	require.NoError(t, err)
	_, err = server.Respond(ctx, req)
	require.NoError(t, err)
	second, err := states.Get(ctx, client.Identity())
	require.NoError(t, err)

	assert.Equal(t, 1, states.Len())
	assert.NotEqual(t, first.RootKey, second.RootKey)
}

func TestRespond_Failures(t *testing.T) {
	ctx := context.Background()
	suite := crypto.NewSuite(nil)
	id := newIdentity(t, suite)

	server := New(Config{Suite: suite, Identity: id, States: store.NewMemoryStateStore()})
	_, err := server.Respond(ctx, domain.HandshakeRequest{})
	assert.ErrorIs(t, err, domain.ErrHandshakeFailure)

	peer := newIdentity(t, suite)
	eph := newIdentity(t, suite)
	req := domain.HandshakeRequest{Identity: peer.Public, Ephemeral0: eph.Public}

	broken := New(Config{Suite: suite, Identity: id, States: failingStore{store.NewMemoryStateStore()}})
	_, err = broken.Respond(ctx, req)
	assert.ErrorIs(t, err, domain.ErrStorage)
}
