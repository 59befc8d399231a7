package message

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/metrics"
	"axolotld/internal/protocol/ratchet"
	"axolotld/internal/services/session"
	"axolotld/internal/store"
)

type flakyStore struct {
	*store.MemoryStateStore
	failSave bool
}

func (f *flakyStore) Save(ctx context.Context, st *domain.RatchetState) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.MemoryStateStore.Save(ctx, st)
}

type side struct {
	id       domain.X25519Public
	states   *flakyStore
	sessions *session.Service
	messages *Service
}

func newSide(t *testing.T, suite crypto.Suite, now func() time.Time, ttl time.Duration) *side {
	t.Helper()
	kp, err := suite.GenerateDH()
	require.NoError(t, err)
	states := &flakyStore{MemoryStateStore: store.NewMemoryStateStore()}
	return &side{
		id:       kp.Public,
		states:   states,
		sessions: session.New(session.Config{Suite: suite, Identity: domain.Identity{Public: kp.Public, Private: kp.Private}, States: states}),
		messages: New(Config{
			Engine:           ratchet.New(suite, ratchet.WithClock(now)),
			States:           states,
			Metrics:          metrics.New(),
			Now:              now,
			SkippedKeyMaxAge: ttl,
		}),
	}
}

// connect returns the client (initiator) and server (responder).
func connect(t *testing.T, now func() time.Time, ttl time.Duration) (client, server *side) {
	t.Helper()
	ctx := context.Background()
	suite := crypto.NewSuite(nil)
	client = newSide(t, suite, now, ttl)
	server = newSide(t, suite, now, ttl)

	req, err := client.sessions.Request()
	require.NoError(t, err)
	reply, err := server.sessions.Respond(ctx, req)
	require.NoError(t, err)
	_, err = client.sessions.Initiate(ctx, reply)
	require.NoError(t, err)
	return client, server
}

func TestSendReceive(t *testing.T) {
	ctx := context.Background()
	client, server := connect(t, time.Now, 0)

	env, err := server.messages.Send(ctx, client.id, []byte("hello"))
	require.NoError(t, err)
	pt, err := client.messages.Receive(ctx, server.id, env)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))

	env, err = client.messages.Send(ctx, server.id, []byte("hi back"))
	require.NoError(t, err)
	pt, err = server.messages.Receive(ctx, client.id, env)
	require.NoError(t, err)
	assert.Equal(t, "hi back", string(pt))
}

func TestExchange_Echo(t *testing.T) {
	ctx := context.Background()
	client, server := connect(t, time.Now, 0)

	upper := HandlerFunc(func(_ context.Context, _ domain.X25519Public, req []byte) ([]byte, error) {
		return []byte(strings.ToUpper(string(req))), nil
	})

	for _, msg := range []string{"one", "two", "three"} {
		env, err := client.messages.Send(ctx, server.id, []byte(msg))
		require.NoError(t, err)
		respEnv, err := server.messages.Exchange(ctx, client.id, env, upper)
		require.NoError(t, err)
		resp, err := client.messages.Receive(ctx, server.id, respEnv)
		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(msg), string(resp))
	}

	env, err := client.messages.Send(ctx, server.id, []byte("echo"))
	require.NoError(t, err)
	respEnv, err := server.messages.Exchange(ctx, client.id, env, Echo)
	require.NoError(t, err)
	resp, err := client.messages.Receive(ctx, server.id, respEnv)
	require.NoError(t, err)
	assert.Equal(t, "echo", string(resp))
}

func TestNoSession(t *testing.T) {
	ctx := context.Background()
	client, _ := connect(t, time.Now, 0)

	_, err := client.messages.Send(ctx, domain.X25519Public{99}, []byte("x"))
	assert.ErrorIs(t, err, domain.ErrNoSession)
	_, err = client.messages.Receive(ctx, domain.X25519Public{99}, domain.Envelope{})
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestStorageFailure_LeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	client, server := connect(t, time.Now, 0)

	before, err := server.states.Get(ctx, client.id)
	require.NoError(t, err)

	server.states.failSave = true
	_, err = server.messages.Send(ctx, client.id, []byte("lost"))
	assert.ErrorIs(t, err, domain.ErrStorage)

	after, err := server.states.Get(ctx, client.id)
	require.NoError(t, err)
	assert.Equal(t, before.SendCounter, after.SendCounter)
	assert.Equal(t, before.SendChainKey, after.SendChainKey)

	// The session still works once storage recovers.
	server.states.failSave = false
	env, err := server.messages.Send(ctx, client.id, []byte("kept"))
	require.NoError(t, err)
	pt, err := client.messages.Receive(ctx, server.id, env)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(pt))
}

func TestCanceledContext_SavesNothing(t *testing.T) {
	client, server := connect(t, time.Now, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := server.messages.Send(ctx, client.id, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)

	st, err := server.states.Get(context.Background(), client.id)
	require.NoError(t, err)
	assert.Zero(t, st.SendCounter)
}

func TestDecryptFailure_IsReported(t *testing.T) {
	ctx := context.Background()
	client, server := connect(t, time.Now, 0)

	env, err := server.messages.Send(ctx, client.id, []byte("hello"))
	require.NoError(t, err)
	env.Body[len(env.Body)-1] ^= 1

	_, err = client.messages.Receive(ctx, server.id, env)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
}

func TestSkippedKeysExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	client, server := connect(t, clock, time.Hour)

	first, err := server.messages.Send(ctx, client.id, []byte("first"))
	require.NoError(t, err)
	second, err := server.messages.Send(ctx, client.id, []byte("second"))
	require.NoError(t, err)

	// Receiving the second message stages a key for the first.
	_, err = client.messages.Receive(ctx, server.id, second)
	require.NoError(t, err)
	st, err := client.states.Get(ctx, server.id)
	require.NoError(t, err)
	require.Len(t, st.SkippedKeys, 1)

	now = now.Add(2 * time.Hour)
	_, err = client.messages.Receive(ctx, server.id, first)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailure)
}

func TestClose_TearsDownSession(t *testing.T) {
	ctx := context.Background()
	client, server := connect(t, time.Now, 0)

	require.NoError(t, server.messages.Close(ctx, client.id))
	_, err := server.messages.Send(ctx, client.id, []byte("gone"))
	assert.ErrorIs(t, err, domain.ErrNoSession)

	// A new handshake brings the peer back.
	req, err := client.sessions.Request()
	require.NoError(t, err)
	reply, err := server.sessions.Respond(ctx, req)
	require.NoError(t, err)
	_, err = client.sessions.Initiate(ctx, reply)
	require.NoError(t, err)

	env, err := server.messages.Send(ctx, client.id, []byte("back"))
	require.NoError(t, err)
	pt, err := client.messages.Receive(ctx, server.id, env)
	require.NoError(t, err)
	assert.Equal(t, "back", string(pt))
}
