// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/z5labs/kafkahello/config"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// ProducerConfig holds the producer settings.
type ProducerConfig struct {
	Brokers         config.Reader[[]string]
	DeliveryTimeout config.Reader[time.Duration]
}

// ProducerConfigFromEnv reads every producer setting from the environment.
func ProducerConfigFromEnv() ProducerConfig {
	return ProducerConfig{
		Brokers:         BrokersFromEnv(),
		DeliveryTimeout: DeliveryTimeoutFromEnv(),
	}
}

// MinDeliveryTimeout is the shortest record delivery timeout the client accepts.
const MinDeliveryTimeout = time.Second

// DeliveryTimeoutTooShortError is returned when the configured delivery
// timeout is below [MinDeliveryTimeout].
type DeliveryTimeoutTooShortError struct {
	Timeout time.Duration
}

// Error implements the [error] interface.
func (e DeliveryTimeoutTooShortError) Error() string {
	return fmt.Sprintf("kafka: delivery timeout %s is less than the minimum of %s", e.Timeout, MinDeliveryTimeout)
}

// Read implements the [config.Reader] interface.
//
// The client connects lazily so reading never fails because of an
// unreachable broker.
func (cfg ProducerConfig) Read(ctx context.Context) (config.Value[*Producer], error) {
	brokers := config.MustOr(ctx, []string{DefaultBroker}, cfg.Brokers)
	deliveryTimeout := config.MustOr(ctx, 5*time.Second, cfg.DeliveryTimeout)
	if deliveryTimeout < MinDeliveryTimeout {
		return config.Value[*Producer]{}, DeliveryTimeoutTooShortError{Timeout: deliveryTimeout}
	}

	opts := append(
		clientOpts(brokers),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
		kgo.AllowAutoTopicCreation(),
	)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return config.Value[*Producer]{}, fmt.Errorf("kafka: failed to create producer client: %w", err)
	}

	p := &Producer{
		client: client,
		admin:  kadm.NewClient(client),
	}
	return config.ValueOf(p), nil
}

// Producer publishes records synchronously.
type Producer struct {
	client *kgo.Client
	admin  *kadm.Client
}

// Produce sends msg and waits for the broker to acknowledge it.
func (p *Producer) Produce(ctx context.Context, msg Message) error {
	record := &kgo.Record{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
	}
	if len(msg.Headers) > 0 {
		record.Headers = make([]kgo.RecordHeader, len(msg.Headers))
		for i, h := range msg.Headers {
			record.Headers[i] = kgo.RecordHeader{Key: h.Key, Value: h.Value}
		}
	}

	return p.client.ProduceSync(ctx, record).FirstErr()
}

// Topic describes a topic to be created.
type Topic struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
}

// EnsureTopic creates t unless it already exists.
func (p *Producer) EnsureTopic(ctx context.Context, t Topic) error {
	resp, err := p.admin.CreateTopic(ctx, t.Partitions, t.ReplicationFactor, nil, t.Name)
	if err != nil {
		return fmt.Errorf("kafka: failed to create topic %s: %w", t.Name, err)
	}
	if resp.Err == nil || errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return nil
	}
	return fmt.Errorf("kafka: failed to create topic %s: %w", t.Name, resp.Err)
}

// Ping reports whether any broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close closes the underlying client.
func (p *Producer) Close() error {
	p.client.Close()
	return nil
}
