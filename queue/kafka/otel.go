// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"log/slog"

	"github.com/z5labs/kafkahello"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/z5labs/kafkahello/queue/kafka"

func logger() *slog.Logger {
	return kafkahello.Logger(instrumentationName)
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// clientOpts are shared by the producer and consumer clients.
func clientOpts(brokers []string, tracerOpts ...kotel.TracerOpt) []kgo.Opt {
	tracerOpts = append(
		tracerOpts,
		kotel.TracerProvider(otel.GetTracerProvider()),
		kotel.TracerPropagator(otel.GetTextMapPropagator()),
	)

	return []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.WithLogger(kslog.New(kafkahello.Logger("github.com/twmb/franz-go/pkg/kgo"))),
		kgo.WithHooks(
			kotel.NewTracer(tracerOpts...),
			kotel.NewMeter(
				kotel.MeterProvider(otel.GetMeterProvider()),
				kotel.WithMergedConnectsMeter(),
			),
		),
	}
}

type consumerMetrics struct {
	messagesProcessed metric.Int64Counter
}

func initConsumerMetrics() (consumerMetrics, error) {
	messagesProcessed, err := meter().Int64Counter(
		"messaging.client.consumed.messages",
		metric.WithDescription("Total number of Kafka messages handed to the processor"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return consumerMetrics{}, err
	}
	return consumerMetrics{messagesProcessed: messagesProcessed}, nil
}
