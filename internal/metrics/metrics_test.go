package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotld/internal/domain"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Handshake()
	m.Sent()
	m.Sent()
	m.Received()
	m.RatchetAdvanced()
	m.Failure(ClassDecrypt)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.handshakes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("send")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("receive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ratchetAdvances))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues(ClassDecrypt)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Handshake()
		m.Sent()
		m.Received()
		m.RatchetAdvanced()
		m.Failure(ClassOther)
		m.SkippedKeys(3)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Handshake()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "axolotld_handshakes_total 1")
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, ClassNoSession, ClassOf(fmt.Errorf("send: %w", domain.ErrNoSession)))
	assert.Equal(t, ClassHandshake, ClassOf(domain.ErrHandshakeFailure))
	assert.Equal(t, ClassDecrypt, ClassOf(fmt.Errorf("x: %w", domain.ErrDecryptionFailure)))
	assert.Equal(t, ClassInconsistent, ClassOf(domain.ErrInconsistentState))
	assert.Equal(t, ClassStorage, ClassOf(domain.ErrStorage))
	assert.Equal(t, ClassOther, ClassOf(errors.New("boom")))
}
