package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/log"
	"axolotld/internal/metrics"
	"axolotld/internal/protocol/ratchet"
	"axolotld/internal/services/message"
	"axolotld/internal/services/session"
	"axolotld/internal/store"
)

type peer struct {
	id       domain.X25519Public
	sessions *session.Service
	messages *message.Service
}

func newPeer(t *testing.T, suite crypto.Suite, m *metrics.Metrics) *peer {
	t.Helper()
	kp, err := suite.GenerateDH()
	require.NoError(t, err)
	states := store.NewMemoryStateStore()
	logs := log.Discard()
	return &peer{
		id: kp.Public,
		sessions: session.New(session.Config{
			Suite:    suite,
			Identity: domain.Identity{Public: kp.Public, Private: kp.Private},
			States:   states,
			Metrics:  m,
			Log:      logs.GetLogger("session"),
		}),
		messages: message.New(message.Config{
			Engine:  ratchet.New(suite),
			States:  states,
			Metrics: m,
			Log:     logs.GetLogger("message"),
		}),
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *peer, *metrics.Metrics) {
	t.Helper()
	suite := crypto.NewSuite(nil)
	m := metrics.New()
	srv := newPeer(t, suite, m)
	h := NewServer(srv.sessions, srv.messages, nil, m, log.Discard().GetLogger("transport"))
	ts := httptest.NewServer(h.Handler())
	t.Cleanup(ts.Close)
	return ts, srv, m
}

func TestEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ts, srv, _ := newTestServer(t)
	client := newPeer(t, crypto.NewSuite(nil), nil)
	c := NewClient(ts.URL)

	req, err := client.sessions.Request()
	require.NoError(t, err)
	reply, err := c.Handshake(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, srv.id, reply.Identity)
	_, err = client.sessions.Initiate(ctx, reply)
	require.NoError(t, err)

	for _, msg := range []string{"ping", "second", "third"} {
		env, err := client.messages.Send(ctx, srv.id, []byte(msg))
		require.NoError(t, err)
		out, err := c.Message(ctx, domain.MessageRequest{Peer: client.id, Envelope: env})
		require.NoError(t, err)
		pt, err := client.messages.Receive(ctx, srv.id, out)
		require.NoError(t, err)
		assert.Equal(t, msg, string(pt))
	}
}

func TestFailuresAreGeneric(t *testing.T) {
	ctx := context.Background()
	ts, srv, _ := newTestServer(t)
	client := newPeer(t, crypto.NewSuite(nil), nil)
	c := NewClient(ts.URL)

	req, err := client.sessions.Request()
	require.NoError(t, err)
	reply, err := c.Handshake(ctx, req)
	require.NoError(t, err)
	_, err = client.sessions.Initiate(ctx, reply)
	require.NoError(t, err)
	env, err := client.messages.Send(ctx, srv.id, []byte("hi"))
	require.NoError(t, err)

	tampered := domain.Envelope{Header: env.Header, Body: append([]byte(nil), env.Body...)}
	tampered.Body[0] ^= 1

	cases := map[string]string{
		"garbage":        `{"identity":`,
		"bad key length": `{"identity":"AAAA","ephemeral0":"AAAA"}`,
		"zero keys":      `{"identity":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=","ephemeral0":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/handshake", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			got, _ := io.ReadAll(resp.Body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, failureBody, strings.TrimSpace(string(got)))
		})
	}

	// Unknown peer and tampered envelope look the same to the caller.
	for _, mr := range []domain.MessageRequest{
		{Peer: domain.X25519Public{5}, Envelope: env},
		{Peer: client.id, Envelope: tampered},
	} {
		_, err := c.Message(ctx, mr)
		assert.ErrorIs(t, err, ErrRejected)
	}

	// The untampered message still decrypts afterwards.
	out, err := c.Message(ctx, domain.MessageRequest{Peer: client.id, Envelope: env})
	require.NoError(t, err)
	pt, err := client.messages.Receive(ctx, srv.id, out)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(pt))
}

func TestMetricsRoute(t *testing.T) {
	ts, _, m := newTestServer(t)
	m.Handshake()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.Contains(body, []byte("axolotld_handshakes_total 1")))
}

func TestWrongMethod(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/handshake")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
