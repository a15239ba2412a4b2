// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package service assembles the HTTP API and the Kafka consumer into a
// single application.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/kafkahello"
	"github.com/z5labs/kafkahello/app"
	"github.com/z5labs/kafkahello/config"
	"github.com/z5labs/kafkahello/health"
	httpserver "github.com/z5labs/kafkahello/http"
	"github.com/z5labs/kafkahello/internal/endpoint"
	"github.com/z5labs/kafkahello/internal/gateway"
	"github.com/z5labs/kafkahello/internal/instrument"
	"github.com/z5labs/kafkahello/internal/workload"
	"github.com/z5labs/kafkahello/queue"
	"github.com/z5labs/kafkahello/queue/kafka"
	"github.com/z5labs/kafkahello/rest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelapi "go.opentelemetry.io/otel"
)

const (
	Title = "kafkahello"

	instrumentationName = "github.com/z5labs/kafkahello/internal/service"
)

// Config holds everything needed to build the service.
type Config struct {
	Version           config.Reader[string]
	Server            httpserver.Server
	Producer          kafka.ProducerConfig
	Consumer          kafka.Config
	Partitions        config.Reader[int32]
	ReplicationFactor config.Reader[int16]

	// TopicTimeout bounds the topic creation done at startup.
	TopicTimeout config.Reader[time.Duration]

	// PingTimeout bounds the broker check done by the readiness probe.
	PingTimeout config.Reader[time.Duration]

	Metrics prometheus.Gatherer
	Mixed   workload.Mixed
}

// ConfigFromEnv reads the service configuration from the environment.
// Metrics are served from metrics.
func ConfigFromEnv(metrics prometheus.Gatherer) Config {
	listener := httpserver.NewTCPListener(
		httpserver.Addr(httpserver.AddrFromEnv()),
	)

	srv := httpserver.NewServer(
		listener,
		httpserver.ReadTimeout(httpserver.ReadTimeoutFromEnv()),
		httpserver.ReadHeaderTimeout(httpserver.ReadHeaderTimeoutFromEnv()),
		httpserver.WriteTimeout(config.Default(10*time.Minute, httpserver.WriteTimeoutFromEnv())),
		httpserver.IdleTimeout(httpserver.IdleTimeoutFromEnv()),
		httpserver.MaxHeaderBytes(httpserver.MaxHeaderBytesFromEnv()),
	)

	return Config{
		Version:           config.Env("OTEL_SERVICE_VERSION"),
		Server:            srv,
		Producer:          kafka.ProducerConfigFromEnv(),
		Consumer:          kafka.ConfigFromEnv(),
		Partitions:        kafka.PartitionsFromEnv(),
		ReplicationFactor: kafka.ReplicationFactorFromEnv(),
		Metrics:           metrics,
		Mixed:             workload.DefaultMixed(),
	}
}

// Build returns an [app.Builder] for the service. The producer is closed
// once both the HTTP server and the consumer have stopped.
func Build(cfg Config) app.Builder[app.HookedRuntime] {
	return app.WithHooks(func(ctx context.Context, h *app.HookRegistry) (app.Runtime, error) {
		log := kafkahello.Logger(instrumentationName)

		producer, err := config.Read(ctx, cfg.Producer)
		if err != nil {
			return nil, err
		}
		h.OnPostRun(func(ctx context.Context) error {
			return producer.Close()
		})

		topic := config.MustOr(ctx, kafka.DefaultTopic, cfg.Consumer.Topic)
		ensureTopic(ctx, log, producer, cfg, topic)

		heap := &workload.Heap{}
		recorder, err := instrument.NewRecorder(otelapi.GetMeterProvider(), heap)
		if err != nil {
			return nil, err
		}

		alive := &health.Binary{}
		ready := health.And(
			alive,
			brokerMonitor(producer, config.MustOr(ctx, 2*time.Second, cfg.PingTimeout)),
		)

		api := rest.NewApi(
			Title,
			config.MustOr(ctx, "v0.0.0", cfg.Version),
			rest.Liveness(health.Handler(log, alive)),
			rest.Readiness(health.Handler(log, ready)),
			rest.Metrics(promhttp.HandlerFor(gatherer(cfg.Metrics), promhttp.HandlerOpts{})),
			endpoint.Hello(),
			endpoint.Publish(gateway.NewPublisher(topic, producer, recorder.Publish)),
			endpoint.BusySpin(recorder.CPU),
			endpoint.HashSHA256(recorder.CPU),
			endpoint.Hash(recorder.CPU),
			endpoint.SortArrays(recorder.CPU),
			endpoint.MatrixMultiply(recorder.CPU),
			endpoint.Sieve(recorder.CPU),
			endpoint.Allocate(recorder.Memory, heap),
			endpoint.Release(recorder.Memory, heap),
			endpoint.Load(recorder.Load, cfg.Mixed),
		)

		httpApp, err := httpserver.Build(
			cfg.Server,
			app.BuilderFunc[http.Handler](func(ctx context.Context) (http.Handler, error) {
				return api, nil
			}),
		).Build(ctx)
		if err != nil {
			return nil, err
		}

		consumer, err := queue.Build(
			kafka.Build(cfg.Consumer, gateway.NewListener(recorder.Consume)),
		).Build(ctx)
		if err != nil {
			return nil, err
		}

		alive.MarkHealthy()
		h.OnPostRun(func(ctx context.Context) error {
			alive.MarkUnhealthy()
			return nil
		})

		return app.Join(httpApp, consumer), nil
	})
}

// ensureTopic creates the topic if it is missing. A failure is only logged
// since the producer may still auto create the topic on first use.
func ensureTopic(ctx context.Context, log *slog.Logger, p *kafka.Producer, cfg Config, name string) {
	ctx, cancel := context.WithTimeout(ctx, config.MustOr(ctx, 10*time.Second, cfg.TopicTimeout))
	defer cancel()

	err := p.EnsureTopic(ctx, kafka.Topic{
		Name:              name,
		Partitions:        config.MustOr(ctx, int32(1), cfg.Partitions),
		ReplicationFactor: config.MustOr(ctx, int16(1), cfg.ReplicationFactor),
	})
	if err == nil {
		return
	}
	log.WarnContext(ctx, "failed to ensure topic exists", kafka.TopicAttr(name), slog.Any("error", err))
}

type pinger interface {
	Ping(context.Context) error
}

func brokerMonitor(p pinger, timeout time.Duration) health.Monitor {
	return health.MonitorFunc(func(ctx context.Context) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := p.Ping(ctx)
		if err != nil {
			return false, err
		}
		return true, nil
	})
}

func gatherer(g prometheus.Gatherer) prometheus.Gatherer {
	if g == nil {
		return prometheus.DefaultGatherer
	}
	return g
}
