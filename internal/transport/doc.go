// Package transport carries handshakes and messages over HTTP.
//
// HTTP API
//
//	POST /v1/handshake
//	    Body is a HandshakeRequest; answers with the HandshakeReply.
//
//	POST /v1/message
//	    Body is a MessageRequest; the envelope is decrypted, handed to the
//	    configured handler, and the handler's answer comes back as an
//	    Envelope.
//
//	GET /metrics
//	    Prometheus metrics, when enabled.
//
// Every failure answers 400 with the same body. The response never says
// which stage failed, so a client cannot probe header keys or counters.
//
// Keys are base64 strings and envelope fields base64 byte strings in JSON.
package transport
