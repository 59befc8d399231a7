package app

import (
	"context"
	"fmt"

	"axolotld/internal/crypto"
	"axolotld/internal/domain"
	"axolotld/internal/log"
	"axolotld/internal/protocol/ratchet"
	messagesvc "axolotld/internal/services/message"
	sessionsvc "axolotld/internal/services/session"
	"axolotld/internal/store"
	"axolotld/internal/transport"
)

// PingResult is what one Ping run observed.
type PingResult struct {
	Server  domain.Fingerprint
	Replies []string
}

// Ping opens a session with the server at base using a throwaway identity,
// sends each message and decrypts the answers.
func Ping(ctx context.Context, base string, logs *log.Backend, messages ...string) (PingResult, error) {
	if logs == nil {
		logs = log.Discard()
	}
	suite := crypto.NewSuite(nil)
	kp, err := suite.GenerateDH()
	if err != nil {
		return PingResult{}, err
	}
	me := domain.Identity{Public: kp.Public, Private: kp.Private}
	defer crypto.WipePrivate(&me.Private)

	states := store.NewMemoryStateStore()
	sessions := sessionsvc.New(sessionsvc.Config{
		Suite:    suite,
		Identity: me,
		States:   states,
		Log:      logs.GetLogger("session"),
	})
	msgs := messagesvc.New(messagesvc.Config{
		Engine: ratchet.New(suite),
		States: states,
		Log:    logs.GetLogger("message"),
	})
	client := transport.NewClient(base)

	req, err := sessions.Request()
	if err != nil {
		return PingResult{}, err
	}
	reply, err := client.Handshake(ctx, req)
	if err != nil {
		return PingResult{}, fmt.Errorf("handshake: %w", err)
	}
	if _, err := sessions.Initiate(ctx, reply); err != nil {
		return PingResult{}, err
	}

	res := PingResult{Server: crypto.Fingerprint(reply.Identity)}
	for _, m := range messages {
		env, err := msgs.Send(ctx, reply.Identity, []byte(m))
		if err != nil {
			return res, err
		}
		out, err := client.Message(ctx, domain.MessageRequest{Peer: me.Public, Envelope: env})
		if err != nil {
			return res, fmt.Errorf("message: %w", err)
		}
		pt, err := msgs.Receive(ctx, reply.Identity, out)
		if err != nil {
			return res, err
		}
		res.Replies = append(res.Replies, string(pt))
	}
	return res, nil
}
