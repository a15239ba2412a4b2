// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"log/slog"

	"github.com/z5labs/kafkahello/config"
	"github.com/z5labs/kafkahello/otel"
	"github.com/z5labs/kafkahello/otel/otlp"

	"github.com/prometheus/client_golang/prometheus"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Telemetry configures the OpenTelemetry SDK from the environment.
//
// Metrics are always registered with reg. Traces, metrics and logs are also
// exported over OTLP when an endpoint is set. Without an OTLP log endpoint
// log records are written to stdout. LOG_LEVELS filters records per logger.
func Telemetry(reg prometheus.Registerer, stdout slog.Handler) otel.SDK {
	rsc := otel.NewResource(
		otel.ServiceName(otel.ServiceNameFromEnv()),
		otel.ServiceVersion(otel.ServiceVersionFromEnv()),
	)

	return otel.SDK{
		TracerProvider: otel.SdkTracerProvider{
			Resource: rsc,
			Sampler: otel.TraceIDRatioBasedSampler{
				Ratio: otel.TraceIDSampleRatioFromEnv(),
			},
			SpanProcessor: otel.BatchSpanProcessor{
				Exporter:           otlp.TraceExporterFromEnv(),
				ExportInterval:     otel.ExportIntervalFromEnv(),
				MaxExportBatchSize: otel.MaxExportBatchSizeFromEnv(),
			},
		},
		MeterProvider: otel.SdkMeterProvider{
			Resource: rsc,
			Readers: []config.Reader[sdkmetric.Reader]{
				otel.PrometheusReader{Registerer: reg},
				otel.PeriodicReader{
					Exporter:       otlp.MetricExporterFromEnv(),
					ExportInterval: otel.ExportIntervalMetricFromEnv(),
				},
			},
		},
		LoggerProvider: otel.SdkLoggerProvider{
			Resource: rsc,
			LogProcessor: otel.LevelFilter{
				Levels: otel.LogLevelsFromEnv(),
				Processor: config.Or[sdklog.Processor](
					otel.BatchLogProcessor{
						Exporter:           otlp.LogExporterFromEnv(),
						ExportInterval:     otel.ExportIntervalLogFromEnv(),
						MaxExportBatchSize: otel.MaxExportBatchSizeLogFromEnv(),
					},
					otel.SimpleLogProcessor{
						Exporter: otel.SlogExporter{Handler: stdout},
					},
				),
			},
		},
	}
}
