// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel builds the OpenTelemetry SDK used by kafkahello.
//
// Every provider component is a [config.Reader] so the service can assemble
// its telemetry pipeline lazily from environment variables:
//   - OTEL_SERVICE_NAME, OTEL_SERVICE_VERSION
//   - OTEL_TRACES_SAMPLER_RATIO
//   - OTEL_BSP_EXPORT_INTERVAL, OTEL_BSP_MAX_EXPORT_BATCH_SIZE
//   - OTEL_METRIC_EXPORT_INTERVAL
//   - OTEL_BLP_EXPORT_INTERVAL, OTEL_BLP_MAX_EXPORT_BATCH_SIZE
//
// Metrics are always exposed through a Prometheus registry and are
// additionally pushed when a periodic OTLP reader is configured.
package otel

import (
	"context"
	"time"

	"github.com/z5labs/kafkahello/config"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
	"go.opentelemetry.io/otel/trace"
)

// Resource describes the service producing telemetry.
type Resource struct {
	ServiceName    config.Reader[string]
	ServiceVersion config.Reader[string]
}

// ResourceOption configures a [Resource].
type ResourceOption func(*Resource)

// ServiceName sets the service.name attribute.
func ServiceName(name config.Reader[string]) ResourceOption {
	return func(r *Resource) {
		r.ServiceName = name
	}
}

// ServiceNameFromEnv reads OTEL_SERVICE_NAME.
func ServiceNameFromEnv() config.Reader[string] {
	return config.Env("OTEL_SERVICE_NAME")
}

// ServiceVersion sets the service.version attribute.
func ServiceVersion(version config.Reader[string]) ResourceOption {
	return func(r *Resource) {
		r.ServiceVersion = version
	}
}

// ServiceVersionFromEnv reads OTEL_SERVICE_VERSION.
func ServiceVersionFromEnv() config.Reader[string] {
	return config.Env("OTEL_SERVICE_VERSION")
}

// NewResource returns a [Resource] configured by opts.
func NewResource(opts ...ResourceOption) Resource {
	res := Resource{
		ServiceName:    config.EmptyReader[string](),
		ServiceVersion: config.EmptyReader[string](),
	}
	for _, o := range opts {
		o(&res)
	}
	return res
}

// Read implements the [config.Reader] interface.
//
// The service name defaults to "kafkahello".
func (cfg Resource) Read(ctx context.Context) (config.Value[*resource.Resource], error) {
	serviceName := config.MustOr(ctx, "kafkahello", cfg.ServiceName)
	serviceVersion := config.MustOr(ctx, "", cfg.ServiceVersion)

	rsc, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return config.Value[*resource.Resource]{}, err
	}
	return config.ValueOf(rsc), nil
}

// TraceIDRatioBasedSampler samples a fixed fraction of traces.
type TraceIDRatioBasedSampler struct {
	Ratio config.Reader[float64]
}

// TraceIDSampleRatioFromEnv reads OTEL_TRACES_SAMPLER_RATIO.
func TraceIDSampleRatioFromEnv() config.Reader[float64] {
	return config.Float64FromString(config.Env("OTEL_TRACES_SAMPLER_RATIO"))
}

// Read implements the [config.Reader] interface. The ratio defaults to 1.0.
func (cfg TraceIDRatioBasedSampler) Read(ctx context.Context) (config.Value[sdktrace.Sampler], error) {
	ratio := config.MustOr(ctx, 1.0, cfg.Ratio)

	return config.ValueOf(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))), nil
}

// BatchSpanProcessor batches finished spans before handing them to Exporter.
type BatchSpanProcessor struct {
	Exporter           config.Reader[sdktrace.SpanExporter]
	ExportInterval     config.Reader[time.Duration]
	MaxExportBatchSize config.Reader[int]
}

// ExportIntervalFromEnv reads OTEL_BSP_EXPORT_INTERVAL.
func ExportIntervalFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("OTEL_BSP_EXPORT_INTERVAL"))
}

// MaxExportBatchSizeFromEnv reads OTEL_BSP_MAX_EXPORT_BATCH_SIZE.
func MaxExportBatchSizeFromEnv() config.Reader[int] {
	return config.IntFromString(config.Env("OTEL_BSP_MAX_EXPORT_BATCH_SIZE"))
}

// Read implements the [config.Reader] interface.
//
// No processor is returned when the exporter is not configured.
func (cfg BatchSpanProcessor) Read(ctx context.Context) (config.Value[sdktrace.SpanProcessor], error) {
	return config.Map(cfg.Exporter, func(ctx context.Context, exporter sdktrace.SpanExporter) (sdktrace.SpanProcessor, error) {
		bsp := sdktrace.NewBatchSpanProcessor(
			exporter,
			sdktrace.WithBatchTimeout(config.MustOr(ctx, 5*time.Second, cfg.ExportInterval)),
			sdktrace.WithMaxExportBatchSize(config.MustOr(ctx, 512, cfg.MaxExportBatchSize)),
		)
		return bsp, nil
	}).Read(ctx)
}

// SdkTracerProvider assembles a [sdktrace.TracerProvider].
type SdkTracerProvider struct {
	Resource      config.Reader[*resource.Resource]
	Sampler       config.Reader[sdktrace.Sampler]
	SpanProcessor config.Reader[sdktrace.SpanProcessor]
}

// Read implements the [config.Reader] interface.
//
// Spans are still created without a span processor so trace and span ids
// show up in log records.
func (cfg SdkTracerProvider) Read(ctx context.Context) (config.Value[trace.TracerProvider], error) {
	rsc, err := config.Read(ctx, cfg.Resource)
	if err != nil {
		return config.Value[trace.TracerProvider]{}, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(rsc),
		sdktrace.WithSampler(config.MustOr(ctx, sdktrace.AlwaysSample(), cfg.Sampler)),
	}

	sp := config.MustOr[sdktrace.SpanProcessor](ctx, nil, cfg.SpanProcessor)
	if sp != nil {
		opts = append(opts, sdktrace.WithSpanProcessor(sp))
	}

	return config.ValueOf[trace.TracerProvider](sdktrace.NewTracerProvider(opts...)), nil
}

// PeriodicReader pushes metrics to Exporter on a fixed interval.
type PeriodicReader struct {
	Exporter       config.Reader[sdkmetric.Exporter]
	ExportInterval config.Reader[time.Duration]
}

// ExportIntervalMetricFromEnv reads OTEL_METRIC_EXPORT_INTERVAL.
func ExportIntervalMetricFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("OTEL_METRIC_EXPORT_INTERVAL"))
}

// Read implements the [config.Reader] interface.
func (cfg PeriodicReader) Read(ctx context.Context) (config.Value[sdkmetric.Reader], error) {
	return config.Map(cfg.Exporter, func(ctx context.Context, exporter sdkmetric.Exporter) (sdkmetric.Reader, error) {
		pr := sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(config.MustOr(ctx, time.Second, cfg.ExportInterval)),
		)
		return pr, nil
	}).Read(ctx)
}

// PrometheusReader exposes metrics for scraping through Registerer.
type PrometheusReader struct {
	Registerer prometheus.Registerer
}

// Read implements the [config.Reader] interface.
func (cfg PrometheusReader) Read(ctx context.Context) (config.Value[sdkmetric.Reader], error) {
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return config.Value[sdkmetric.Reader]{}, err
	}
	return config.ValueOf[sdkmetric.Reader](exp), nil
}

// SdkMeterProvider assembles a [sdkmetric.MeterProvider] from every
// configured reader.
type SdkMeterProvider struct {
	Resource config.Reader[*resource.Resource]
	Readers  []config.Reader[sdkmetric.Reader]
}

// Read implements the [config.Reader] interface.
func (cfg SdkMeterProvider) Read(ctx context.Context) (config.Value[metric.MeterProvider], error) {
	rsc, err := config.Read(ctx, cfg.Resource)
	if err != nil {
		return config.Value[metric.MeterProvider]{}, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(rsc)}
	for _, r := range cfg.Readers {
		reader := config.MustOr[sdkmetric.Reader](ctx, nil, r)
		if reader == nil {
			continue
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	return config.ValueOf[metric.MeterProvider](sdkmetric.NewMeterProvider(opts...)), nil
}

// BatchLogProcessor batches log records before handing them to Exporter.
type BatchLogProcessor struct {
	Exporter           config.Reader[sdklog.Exporter]
	ExportInterval     config.Reader[time.Duration]
	MaxExportBatchSize config.Reader[int]
}

// ExportIntervalLogFromEnv reads OTEL_BLP_EXPORT_INTERVAL.
func ExportIntervalLogFromEnv() config.Reader[time.Duration] {
	return config.DurationFromString(config.Env("OTEL_BLP_EXPORT_INTERVAL"))
}

// MaxExportBatchSizeLogFromEnv reads OTEL_BLP_MAX_EXPORT_BATCH_SIZE.
func MaxExportBatchSizeLogFromEnv() config.Reader[int] {
	return config.IntFromString(config.Env("OTEL_BLP_MAX_EXPORT_BATCH_SIZE"))
}

// Read implements the [config.Reader] interface.
func (cfg BatchLogProcessor) Read(ctx context.Context) (config.Value[sdklog.Processor], error) {
	return config.Map(cfg.Exporter, func(ctx context.Context, exporter sdklog.Exporter) (sdklog.Processor, error) {
		blp := sdklog.NewBatchProcessor(
			exporter,
			sdklog.WithExportInterval(config.MustOr(ctx, time.Second, cfg.ExportInterval)),
			sdklog.WithExportMaxBatchSize(config.MustOr(ctx, 512, cfg.MaxExportBatchSize)),
		)
		return blp, nil
	}).Read(ctx)
}

// SimpleLogProcessor hands every log record to Exporter as it is emitted.
type SimpleLogProcessor struct {
	Exporter config.Reader[sdklog.Exporter]
}

// Read implements the [config.Reader] interface.
func (cfg SimpleLogProcessor) Read(ctx context.Context) (config.Value[sdklog.Processor], error) {
	return config.Map(cfg.Exporter, func(ctx context.Context, exporter sdklog.Exporter) (sdklog.Processor, error) {
		return sdklog.NewSimpleProcessor(exporter), nil
	}).Read(ctx)
}

// SdkLoggerProvider assembles a [sdklog.LoggerProvider].
type SdkLoggerProvider struct {
	Resource     config.Reader[*resource.Resource]
	LogProcessor config.Reader[sdklog.Processor]
}

// Read implements the [config.Reader] interface.
func (cfg SdkLoggerProvider) Read(ctx context.Context) (config.Value[log.LoggerProvider], error) {
	rsc, err := config.Read(ctx, cfg.Resource)
	if err != nil {
		return config.Value[log.LoggerProvider]{}, err
	}
	processor, err := config.Read(ctx, cfg.LogProcessor)
	if err != nil {
		return config.Value[log.LoggerProvider]{}, err
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(rsc),
		sdklog.WithProcessor(processor),
	)
	return config.ValueOf[log.LoggerProvider](lp), nil
}
