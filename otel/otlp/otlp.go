// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp provides optional OTLP exporters for traces, metrics and logs.
//
// Each exporter is only configured when an endpoint is found in
// OTEL_EXPORTER_OTLP_{TRACES,METRICS,LOGS}_ENDPOINT or OTEL_EXPORTER_OTLP_ENDPOINT.
// OTEL_EXPORTER_OTLP_PROTOCOL selects "grpc" (default) or "http/protobuf".
package otlp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/z5labs/kafkahello/concurrent"
	"github.com/z5labs/kafkahello/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Protocol is the OTLP transport.
type Protocol string

const (
	ProtocolGrpc         Protocol = "grpc"
	ProtocolHttpProtobuf Protocol = "http/protobuf"
)

// UnsupportedProtocolError is returned for unknown OTEL_EXPORTER_OTLP_PROTOCOL values.
type UnsupportedProtocolError struct {
	Protocol string
}

func (e UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("unsupported otlp protocol: %s", e.Protocol)
}

// ProtocolFromEnv reads OTEL_EXPORTER_OTLP_PROTOCOL.
func ProtocolFromEnv() config.Reader[Protocol] {
	return config.Map(config.Env("OTEL_EXPORTER_OTLP_PROTOCOL"), func(ctx context.Context, s string) (Protocol, error) {
		switch p := Protocol(s); p {
		case ProtocolGrpc, ProtocolHttpProtobuf:
			return p, nil
		default:
			return "", UnsupportedProtocolError{Protocol: s}
		}
	})
}

func endpointFromEnv(signal string) config.Reader[string] {
	return config.Or(
		config.Env("OTEL_EXPORTER_OTLP_"+signal+"_ENDPOINT"),
		config.Env("OTEL_EXPORTER_OTLP_ENDPOINT"),
	)
}

var conns = concurrent.NewCache[string, *grpc.ClientConn]()

// GrpcConn shares a single client connection per target between
// the trace, metric and log exporters.
type GrpcConn struct {
	Target config.Reader[string]
}

// Read implements the [config.Reader] interface.
func (gc GrpcConn) Read(ctx context.Context) (config.Value[*grpc.ClientConn], error) {
	return config.Map(gc.Target, func(ctx context.Context, target string) (*grpc.ClientConn, error) {
		target = stripScheme(target)

		return conns.GetOr(target, func() (*grpc.ClientConn, error) {
			return grpc.NewClient(
				target,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
			)
		})
	}).Read(ctx)
}

// CloseConns closes every connection opened by [GrpcConn].
// The exporters do not own them so this must run after the providers shut down.
func CloseConns() error {
	var errs []error
	for _, cc := range conns.Drain() {
		errs = append(errs, cc.Close())
	}
	return errors.Join(errs...)
}

func stripScheme(endpoint string) string {
	_, rest, found := strings.Cut(endpoint, "://")
	if !found {
		return endpoint
	}
	return rest
}

func hasScheme(endpoint string) bool {
	return strings.Contains(endpoint, "://")
}

// TraceExporter exports spans over OTLP.
type TraceExporter struct {
	Protocol config.Reader[Protocol]
	Endpoint config.Reader[string]
}

// TraceExporterFromEnv configures a [TraceExporter] from the standard OTLP variables.
func TraceExporterFromEnv() TraceExporter {
	return TraceExporter{
		Protocol: ProtocolFromEnv(),
		Endpoint: endpointFromEnv("TRACES"),
	}
}

// Read implements the [config.Reader] interface.
func (cfg TraceExporter) Read(ctx context.Context) (config.Value[sdktrace.SpanExporter], error) {
	protocol, err := config.Read(ctx, config.Default(ProtocolGrpc, cfg.Protocol))
	if err != nil {
		return config.Value[sdktrace.SpanExporter]{}, err
	}

	return config.Map(cfg.Endpoint, func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		if protocol == ProtocolHttpProtobuf {
			if hasScheme(endpoint) {
				return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
			}
			return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
		}

		cc, err := config.Read(ctx, GrpcConn{Target: config.ReaderOf(endpoint)})
		if err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(cc))
	}).Read(ctx)
}

// MetricExporter exports metrics over OTLP.
type MetricExporter struct {
	Protocol config.Reader[Protocol]
	Endpoint config.Reader[string]
}

// MetricExporterFromEnv configures a [MetricExporter] from the standard OTLP variables.
func MetricExporterFromEnv() MetricExporter {
	return MetricExporter{
		Protocol: ProtocolFromEnv(),
		Endpoint: endpointFromEnv("METRICS"),
	}
}

// Read implements the [config.Reader] interface.
func (cfg MetricExporter) Read(ctx context.Context) (config.Value[sdkmetric.Exporter], error) {
	protocol, err := config.Read(ctx, config.Default(ProtocolGrpc, cfg.Protocol))
	if err != nil {
		return config.Value[sdkmetric.Exporter]{}, err
	}

	return config.Map(cfg.Endpoint, func(ctx context.Context, endpoint string) (sdkmetric.Exporter, error) {
		if protocol == ProtocolHttpProtobuf {
			if hasScheme(endpoint) {
				return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(endpoint))
			}
			return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
		}

		cc, err := config.Read(ctx, GrpcConn{Target: config.ReaderOf(endpoint)})
		if err != nil {
			return nil, err
		}
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(cc))
	}).Read(ctx)
}

// LogExporter exports log records over OTLP.
type LogExporter struct {
	Protocol config.Reader[Protocol]
	Endpoint config.Reader[string]
}

// LogExporterFromEnv configures a [LogExporter] from the standard OTLP variables.
func LogExporterFromEnv() LogExporter {
	return LogExporter{
		Protocol: ProtocolFromEnv(),
		Endpoint: endpointFromEnv("LOGS"),
	}
}

// Read implements the [config.Reader] interface.
func (cfg LogExporter) Read(ctx context.Context) (config.Value[sdklog.Exporter], error) {
	protocol, err := config.Read(ctx, config.Default(ProtocolGrpc, cfg.Protocol))
	if err != nil {
		return config.Value[sdklog.Exporter]{}, err
	}

	return config.Map(cfg.Endpoint, func(ctx context.Context, endpoint string) (sdklog.Exporter, error) {
		if protocol == ProtocolHttpProtobuf {
			if hasScheme(endpoint) {
				return otlploghttp.New(ctx, otlploghttp.WithEndpointURL(endpoint))
			}
			return otlploghttp.New(ctx, otlploghttp.WithEndpoint(endpoint), otlploghttp.WithInsecure())
		}

		cc, err := config.Read(ctx, GrpcConn{Target: config.ReaderOf(endpoint)})
		if err != nil {
			return nil, err
		}
		return otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(cc))
	}).Read(ctx)
}
