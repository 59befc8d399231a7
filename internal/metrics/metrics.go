// Package metrics exposes prometheus counters for handshakes and messages.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"axolotld/internal/domain"
)

// Failure classes used as the "class" label.
const (
	ClassNoSession    = "no_session"
	ClassHandshake    = "handshake"
	ClassDecrypt      = "decrypt"
	ClassInconsistent = "inconsistent_state"
	ClassStorage      = "storage"
	ClassOther        = "other"
)

// Metrics groups the counters of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	handshakes      prometheus.Counter
	messages        *prometheus.CounterVec
	ratchetAdvances prometheus.Counter
	failures        *prometheus.CounterVec
	skippedKeys     prometheus.Gauge
}

// New creates the counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		handshakes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "axolotld_handshakes_total",
			Help: "Number of completed handshakes",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axolotld_messages_total",
			Help: "Number of messages encrypted or decrypted",
		}, []string{"direction"}),
		ratchetAdvances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "axolotld_ratchet_advances_total",
			Help: "Number of DH ratchet steps taken",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "axolotld_failures_total",
			Help: "Number of failed operations per failure class",
		}, []string{"class"}),
		skippedKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "axolotld_skipped_keys",
			Help: "Skipped keys held by the last session touched",
		}),
	}
	m.registry.MustRegister(
		m.handshakes,
		m.messages,
		m.ratchetAdvances,
		m.failures,
		m.skippedKeys,
		collectors.NewGoCollector(),
	)
	return m
}

// Handshake counts a completed handshake.
func (m *Metrics) Handshake() {
	if m == nil {
		return
	}
	m.handshakes.Inc()
}

// Sent counts an encrypted message.
func (m *Metrics) Sent() {
	if m == nil {
		return
	}
	m.messages.WithLabelValues("send").Inc()
}

// Received counts a decrypted message.
func (m *Metrics) Received() {
	if m == nil {
		return
	}
	m.messages.WithLabelValues("receive").Inc()
}

// RatchetAdvanced counts a DH ratchet step.
func (m *Metrics) RatchetAdvanced() {
	if m == nil {
		return
	}
	m.ratchetAdvances.Inc()
}

// Failure counts a failed operation.
func (m *Metrics) Failure(class string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(class).Inc()
}

// SkippedKeys records the skipped key count of a session.
func (m *Metrics) SkippedKeys(n int) {
	if m == nil {
		return
	}
	m.skippedKeys.Set(float64(n))
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ClassOf maps an error onto a failure class label.
func ClassOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return ClassNoSession
	case errors.Is(err, domain.ErrHandshakeFailure):
		return ClassHandshake
	case errors.Is(err, domain.ErrDecryptionFailure):
		return ClassDecrypt
	case errors.Is(err, domain.ErrInconsistentState):
		return ClassInconsistent
	case errors.Is(err, domain.ErrStorage):
		return ClassStorage
	default:
		return ClassOther
	}
}
