package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gopkg.in/op/go-logging.v1"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/metrics"
	"axolotld/internal/services/message"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20

	failureBody = "request failed"
)

// Responder answers handshake requests.
type Responder interface {
	Respond(ctx context.Context, req domain.HandshakeRequest) (domain.HandshakeReply, error)
}

// Exchanger decrypts a request envelope and encrypts the handler's answer.
type Exchanger interface {
	Exchange(ctx context.Context, peer domain.X25519Public, env domain.Envelope, h message.Handler) (domain.Envelope, error)
}

// Server routes HTTP requests to the session and message services.
type Server struct {
	sessions Responder
	messages Exchanger
	handler  message.Handler
	metrics  *metrics.Metrics
	log      *logging.Logger
}

// NewServer returns a Server. A nil handler echoes every request; a nil
// metrics disables /metrics.
func NewServer(
	sessions Responder,
	messages Exchanger,
	handler message.Handler,
	m *metrics.Metrics,
	log *logging.Logger,
) *Server {
	if handler == nil {
		handler = message.Echo
	}
	if log == nil {
		log = logging.MustGetLogger("transport")
	}
	return &Server{sessions: sessions, messages: messages, handler: handler, metrics: m, log: log}
}

// Handler returns the routed, access-logged http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/handshake", s.handleHandshake)
	mux.HandleFunc("POST /v1/message", s.handleMessage)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.accessLog(mux)
}

func (s *Server) handleHandshake(w http.ResponseWriter, r *http.Request) {
	var req domain.HandshakeRequest
	if err := decode(w, r, &req); err != nil {
		s.metrics.Failure(metrics.ClassOther)
		s.reject(w, "handshake", err)
		return
	}
	reply, err := s.sessions.Respond(r.Context(), req)
	if err != nil {
		s.reject(w, "handshake from "+peerLabel(req.Identity), err)
		return
	}
	writeJSON(w, reply)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.MessageRequest
	if err := decode(w, r, &req); err != nil {
		s.metrics.Failure(metrics.ClassOther)
		s.reject(w, "message", err)
		return
	}
	env, err := s.messages.Exchange(r.Context(), req.Peer, req.Envelope, s.handler)
	if err != nil {
		s.reject(w, "message from "+peerLabel(req.Peer), err)
		return
	}
	writeJSON(w, env)
}

// reject logs the cause and answers with the generic failure.
func (s *Server) reject(w http.ResponseWriter, what string, err error) {
	s.log.Debugf("%s rejected: %v", what, err)
	http.Error(w, failureBody, http.StatusBadRequest)
}

func decode(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// accessLog records method, path, remote, status, bytes and duration.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		s.log.Infof("%s %s from %s: %d %dB in %s",
			r.Method, r.URL.Path, r.RemoteAddr, rec.status, rec.bytes, time.Since(start).Round(time.Microsecond))
	})
}

// peerLabel is used in logs where a peer may be absent.
func peerLabel(p domain.X25519Public) string {
	if p.IsZero() {
		return "-"
	}
	return crypto.Fingerprint(p).String()
}
