package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"axolotld/internal/domain"
)

// ErrRejected is returned when the server answers with a non-2xx status.
var ErrRejected = errors.New("transport: request rejected")

// Client is the HTTP implementation of domain.Client.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a Client for the server at base, e.g. http://127.0.0.1:8080.
func NewClient(base string) *Client {
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: http.DefaultClient}
}

// Handshake posts req and returns the server's reply.
func (c *Client) Handshake(ctx context.Context, req domain.HandshakeRequest) (domain.HandshakeReply, error) {
	var out domain.HandshakeReply
	if err := c.post(ctx, "/v1/handshake", req, &out); err != nil {
		return domain.HandshakeReply{}, err
	}
	return out, nil
}

// Message posts an envelope and returns the encrypted answer.
func (c *Client) Message(ctx context.Context, req domain.MessageRequest) (domain.Envelope, error) {
	var out domain.Envelope
	if err := c.post(ctx, "/v1/message", req, &out); err != nil {
		return domain.Envelope{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: post %s: %s", ErrRejected, path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ domain.Client = (*Client)(nil)
