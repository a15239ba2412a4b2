// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gateway sends and receives plain text messages on a single topic.
package gateway

import (
	"context"
	"log/slog"

	"github.com/z5labs/kafkahello"
	"github.com/z5labs/kafkahello/internal/instrument"
	"github.com/z5labs/kafkahello/queue/kafka"

	"github.com/google/uuid"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

const instrumentationName = "github.com/z5labs/kafkahello/internal/gateway"

// Producer sends a message to the broker and waits for its acknowledgement.
type Producer interface {
	Produce(context.Context, kafka.Message) error
}

// Publisher publishes values to a single topic.
type Publisher struct {
	topic    string
	producer Producer
	op       *instrument.Operation
}

// NewPublisher returns a [Publisher] which sends to topic through p.
func NewPublisher(topic string, p Producer, op *instrument.Operation) *Publisher {
	return &Publisher{
		topic:    topic,
		producer: p,
		op:       op,
	}
}

// Publish sends value synchronously. Failures are returned as is.
func (p *Publisher) Publish(ctx context.Context, value string) (err error) {
	timer := p.op.Start(ctx, semconv.MessagingDestinationName(p.topic))

	panicked := true
	defer func() {
		if panicked {
			err = instrument.ErrPanicked
		}
		timer.Stop(ctx, err)
	}()

	err = p.producer.Produce(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(uuid.NewString()),
		Value: []byte(value),
	})
	panicked = false
	return err
}

// Listener logs every message delivered by the consumer.
type Listener struct {
	log *slog.Logger
	op  *instrument.Operation
}

// NewListener returns a [Listener] recording into op.
func NewListener(op *instrument.Operation) *Listener {
	return &Listener{
		log: kafkahello.Logger(instrumentationName),
		op:  op,
	}
}

// Process implements the [queue.Processor] interface.
func (l *Listener) Process(ctx context.Context, msg kafka.Message) error {
	timer := l.op.Start(ctx, semconv.MessagingDestinationName(msg.Topic))
	defer timer.Stop(ctx, nil)

	l.log.InfoContext(
		ctx,
		"received message",
		kafka.TopicAttr(msg.Topic),
		kafka.PartitionAttr(msg.Partition),
		kafka.OffsetAttr(msg.Offset),
		slog.String("value", string(msg.Value)),
	)
	return nil
}
