package messaging

import (
	"context"
	"fmt"

	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// MessageQueue is a durable outbound queue.
type MessageQueue interface {
	Enqueue(ctx context.Context, topic string, message []byte, options *EnqueueOptions) error
}

type EnqueueOptions struct {
	IdempotentKey string
}

type jetStreamQueue struct {
	streamName string
	js         jetstream.JetStream
}

// NewJetStreamQueue ensures the stream exists and returns a queue publishing into it.
func NewJetStreamQueue(ctx context.Context, nc *nats.Conn, streamName string, subjectWildCards []string) (MessageQueue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Stream for " + streamName,
		Subjects:    subjectWildCards,
		MaxBytes:    10_485_760, // 10 MB
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create jetstream stream %s: %w", streamName, err)
	}
	logger.Debug("JetStream stream ready", "stream", streamName, "subjects", subjectWildCards)

	return &jetStreamQueue{streamName: streamName, js: js}, nil
}

func (q *jetStreamQueue) Enqueue(ctx context.Context, topic string, message []byte, options *EnqueueOptions) error {
	header := nats.Header{}
	if options != nil && options.IdempotentKey != "" {
		header.Add(nats.MsgIdHdr, options.IdempotentKey)
	}

	_, err := q.js.PublishMsg(ctx, &nats.Msg{
		Subject: topic,
		Data:    message,
		Header:  header,
	})
	if err != nil {
		logger.Error("Failed to publish message to JetStream", err, "topic", topic, "stream", q.streamName)
		return fmt.Errorf("error enqueueing message: %w", err)
	}

	logger.Debug("Published message", "topic", topic, "stream", q.streamName)
	return nil
}
