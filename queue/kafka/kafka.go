// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kafka connects kafkahello to a Kafka cluster using franz-go.
//
// It provides a consumer [Runtime] which hands every record of a single topic
// to a [queue.Processor], and a [Producer] for synchronous publishing and
// topic administration.
package kafka

import (
	"context"
	"strings"
	"time"

	"github.com/z5labs/kafkahello/config"
)

// Header represents a Kafka message header.
type Header struct {
	Key   string
	Value []byte
}

// Message represents a Kafka message.
type Message struct {
	Key       []byte
	Value     []byte
	Headers   []Header
	Timestamp time.Time
	Topic     string
	Partition int32
	Offset    int64
}

const (
	DefaultBroker  = "localhost:9092"
	DefaultGroupID = "hello-group"
	DefaultTopic   = "demo"
)

// BrokersFromEnv reads comma separated broker addresses from KAFKA_BROKERS.
func BrokersFromEnv() config.Reader[[]string] {
	return config.Map(
		config.Env("KAFKA_BROKERS"),
		func(ctx context.Context, s string) ([]string, error) {
			brokers := strings.Split(s, ",")
			for i := range brokers {
				brokers[i] = strings.TrimSpace(brokers[i])
			}
			return brokers, nil
		},
	)
}

// GroupIDFromEnv reads the consumer group from KAFKA_GROUP_ID.
func GroupIDFromEnv() config.Reader[string] {
	return config.Env("KAFKA_GROUP_ID")
}

// TopicFromEnv reads the topic name from KAFKA_TOPIC.
func TopicFromEnv() config.Reader[string] {
	return config.Env("KAFKA_TOPIC")
}

// SessionTimeoutFromEnv reads KAFKA_SESSION_TIMEOUT, e.g. "45s".
func SessionTimeoutFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("KAFKA_SESSION_TIMEOUT"))
}

// RebalanceTimeoutFromEnv reads KAFKA_REBALANCE_TIMEOUT, e.g. "30s".
func RebalanceTimeoutFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("KAFKA_REBALANCE_TIMEOUT"))
}

// FetchMaxBytesFromEnv reads KAFKA_FETCH_MAX_BYTES.
func FetchMaxBytesFromEnv() config.Reader[int32] {
	return config.Map(
		config.IntFromString(config.Env("KAFKA_FETCH_MAX_BYTES")),
		func(ctx context.Context, n int) (int32, error) {
			return int32(n), nil
		},
	)
}

// DeliveryTimeoutFromEnv reads KAFKA_DELIVERY_TIMEOUT, which bounds how long
// a produced record may be retried before the publish fails.
func DeliveryTimeoutFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("KAFKA_DELIVERY_TIMEOUT"))
}

// PartitionsFromEnv reads KAFKA_TOPIC_PARTITIONS.
func PartitionsFromEnv() config.Reader[int32] {
	return config.Map(
		config.IntFromString(config.Env("KAFKA_TOPIC_PARTITIONS")),
		func(ctx context.Context, n int) (int32, error) {
			return int32(n), nil
		},
	)
}

// ReplicationFactorFromEnv reads KAFKA_TOPIC_REPLICATION_FACTOR.
func ReplicationFactorFromEnv() config.Reader[int16] {
	return config.Map(
		config.IntFromString(config.Env("KAFKA_TOPIC_REPLICATION_FACTOR")),
		func(ctx context.Context, n int) (int16, error) {
			return int16(n), nil
		},
	)
}
