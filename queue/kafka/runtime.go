// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/z5labs/kafkahello/app"
	"github.com/z5labs/kafkahello/config"
	"github.com/z5labs/kafkahello/queue"

	"github.com/sourcegraph/conc/pool"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the consumer settings.
type Config struct {
	Brokers          config.Reader[[]string]
	GroupID          config.Reader[string]
	Topic            config.Reader[string]
	SessionTimeout   config.Reader[time.Duration]
	RebalanceTimeout config.Reader[time.Duration]
	FetchMaxBytes    config.Reader[int32]
}

// ConfigFromEnv reads every consumer setting from the environment.
func ConfigFromEnv() Config {
	return Config{
		Brokers:          BrokersFromEnv(),
		GroupID:          GroupIDFromEnv(),
		Topic:            TopicFromEnv(),
		SessionTimeout:   SessionTimeoutFromEnv(),
		RebalanceTimeout: RebalanceTimeoutFromEnv(),
		FetchMaxBytes:    FetchMaxBytesFromEnv(),
	}
}

// Runtime consumes a single topic as part of a consumer group.
//
// Offsets are committed automatically by the client once records are
// polled so a failed record is never redelivered.
type Runtime struct {
	log       *slog.Logger
	brokers   []string
	groupID   string
	topic     string
	opts      []kgo.Opt
	processor recordProcessor
}

// Build returns an [app.Builder] for a [Runtime] which hands every record
// of the configured topic to processor.
func Build(cfg Config, processor queue.Processor[Message]) app.Builder[Runtime] {
	return app.BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		brokers := config.MustOr(ctx, []string{DefaultBroker}, cfg.Brokers)
		groupID := config.MustOr(ctx, DefaultGroupID, cfg.GroupID)
		topic := config.MustOr(ctx, DefaultTopic, cfg.Topic)

		metrics, err := initConsumerMetrics()
		if err != nil {
			return Runtime{}, err
		}

		opts := append(
			clientOpts(brokers, kotel.ConsumerGroup(groupID), kotel.LinkSpans()),
			kgo.ConsumerGroup(groupID),
			kgo.ConsumeTopics(topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			kgo.Balancers(kgo.CooperativeStickyBalancer()),
			kgo.SessionTimeout(config.MustOr(ctx, 45*time.Second, cfg.SessionTimeout)),
			kgo.RebalanceTimeout(config.MustOr(ctx, 30*time.Second, cfg.RebalanceTimeout)),
			kgo.FetchMaxBytes(config.MustOr(ctx, int32(50*1024*1024), cfg.FetchMaxBytes)),
		)

		log := logger().With(GroupIDAttr(groupID), TopicAttr(topic))

		rt := Runtime{
			log:     log,
			brokers: brokers,
			groupID: groupID,
			topic:   topic,
			opts:    opts,
			processor: recordProcessor{
				log:               log,
				tracer:            tracer(),
				processor:         processor,
				messagesProcessed: metrics.messagesProcessed,
			},
		}
		return rt, nil
	})
}

// ProcessQueue implements the [queue.QueueRuntime] interface.
//
// Partitions of a single poll are processed concurrently while records
// within a partition are processed in offset order.
func (rt Runtime) ProcessQueue(ctx context.Context) error {
	client, err := kgo.NewClient(rt.opts...)
	if err != nil {
		return fmt.Errorf("kafka: failed to create client: %w", err)
	}
	defer client.Close()

	rt.log.InfoContext(ctx, "starting kafka consumer", BrokersAttr(rt.brokers))

	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			rt.log.WarnContext(
				ctx,
				"failed to fetch from partition",
				TopicAttr(topic),
				PartitionAttr(partition),
				slog.Any("error", err),
			)
		})

		p := pool.New().WithContext(ctx)
		fetches.EachPartition(func(ftp kgo.FetchTopicPartition) {
			if len(ftp.Records) == 0 {
				return
			}

			p.Go(func(ctx context.Context) error {
				ftp.EachRecord(func(record *kgo.Record) {
					rt.processor.process(ctx, record)
				})
				return nil
			})
		})
		err := p.Wait()
		if err != nil {
			return err
		}
	}
}

type recordProcessor struct {
	log               *slog.Logger
	tracer            trace.Tracer
	processor         queue.Processor[Message]
	messagesProcessed metric.Int64Counter
}

func (rp recordProcessor) process(ctx context.Context, record *kgo.Record) {
	topicAttr := semconv.MessagingDestinationName(record.Topic)
	partitionIDAttr := semconv.MessagingDestinationPartitionID(strconv.FormatInt(int64(record.Partition), 10))
	spanOpts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationTypeProcess,
			topicAttr,
			partitionIDAttr,
			semconv.MessagingKafkaOffset(int(record.Offset)),
		),
	}

	if record.Context != nil {
		if s := trace.SpanContextFromContext(record.Context); s.IsValid() {
			spanOpts = append(spanOpts, trace.WithLinks(trace.Link{SpanContext: s}))
		}
	}

	spanCtx, span := rp.tracer.Start(ctx, "process "+record.Topic, spanOpts...)
	defer span.End()

	err := rp.processor.Process(spanCtx, newMessage(record))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		rp.log.ErrorContext(
			spanCtx,
			"failed to process kafka record",
			TopicAttr(record.Topic),
			PartitionAttr(record.Partition),
			OffsetAttr(record.Offset),
			slog.Any("error", err),
		)
	}

	rp.messagesProcessed.Add(spanCtx, 1, metric.WithAttributes(
		semconv.MessagingSystemKafka,
		topicAttr,
		attribute.String("messaging.process.status", processStatus(err)),
	))
}

func newMessage(record *kgo.Record) Message {
	headers := make([]Header, len(record.Headers))
	for i, hdr := range record.Headers {
		headers[i] = Header{
			Key:   hdr.Key,
			Value: hdr.Value,
		}
	}

	return Message{
		Headers:   headers,
		Key:       record.Key,
		Value:     record.Value,
		Timestamp: record.Timestamp,
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
	}
}

func processStatus(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
