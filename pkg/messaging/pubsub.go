package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

var ErrNoResponders = errors.New("no responders on subject")

// Requester performs a single request/reply exchange.
type Requester interface {
	Request(ctx context.Context, topic string, data []byte) ([]byte, error)
}

type natsRequester struct {
	nc *nats.Conn
}

func NewRequester(nc *nats.Conn) Requester {
	return &natsRequester{nc: nc}
}

// Request publishes data with a private reply inbox and waits for the first reply
// or for ctx to end.
func (r *natsRequester) Request(ctx context.Context, topic string, data []byte) ([]byte, error) {
	replyInbox := r.nc.NewRespInbox()
	sub, err := r.nc.SubscribeSync(replyInbox)
	if err != nil {
		return nil, fmt.Errorf("subscribe to reply inbox: %w", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	if err := r.nc.PublishRequest(topic, replyInbox, data); err != nil {
		return nil, fmt.Errorf("publish %s: %w", topic, err)
	}

	reply, err := sub.NextMsgWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("await reply on %s: %w", topic, err)
	}
	if reply.Header != nil && reply.Header.Get("Status") == "503" {
		return nil, fmt.Errorf("%s: %w", topic, ErrNoResponders)
	}
	return reply.Data, nil
}
