// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"

	"github.com/z5labs/kafkahello/app"
	"github.com/z5labs/kafkahello/config"

	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// SDK holds the providers registered globally before the service is built.
//
// Unset readers fall back to W3C trace context and baggage propagation and
// no-op providers.
type SDK struct {
	TextMapPropagator config.Reader[propagation.TextMapPropagator]
	TracerProvider    config.Reader[trace.TracerProvider]
	MeterProvider     config.Reader[metric.MeterProvider]
	LoggerProvider    config.Reader[log.LoggerProvider]

	// DisableRuntimeMetrics skips the Go runtime instrumentation.
	DisableRuntimeMetrics bool
}

// Runtime wraps the service runtime and shuts the providers down once
// it returns.
type Runtime struct {
	inner          app.Runtime
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	loggerProvider log.LoggerProvider
}

// Build registers the SDK globally and then builds the wrapped runtime, so
// every instrument and logger created by builder is backed by the SDK.
func Build[T app.Runtime](sdk SDK, builder app.Builder[T]) app.Builder[Runtime] {
	return app.BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		defaultTextMapPropagator := propagation.NewCompositeTextMapPropagator(
			propagation.Baggage{},
			propagation.TraceContext{},
		)
		var defaultTracerProvider trace.TracerProvider = tracenoop.NewTracerProvider()
		var defaultMeterProvider metric.MeterProvider = metricnoop.NewMeterProvider()
		var defaultLoggerProvider log.LoggerProvider = lognoop.NewLoggerProvider()

		tmp := config.MustOr(ctx, defaultTextMapPropagator, sdk.TextMapPropagator)
		tp := config.MustOr(ctx, defaultTracerProvider, sdk.TracerProvider)
		mp := config.MustOr(ctx, defaultMeterProvider, sdk.MeterProvider)
		lp := config.MustOr(ctx, defaultLoggerProvider, sdk.LoggerProvider)

		otel.SetTextMapPropagator(tmp)
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		global.SetLoggerProvider(lp)

		rt := Runtime{
			tracerProvider: tp,
			meterProvider:  mp,
			loggerProvider: lp,
		}

		if !sdk.DisableRuntimeMetrics {
			err := runtime.Start(runtime.WithMeterProvider(mp))
			if err != nil {
				return rt, errors.Join(err, rt.shutdown())
			}
		}

		inner, err := builder.Build(ctx)
		if err != nil {
			return rt, errors.Join(err, rt.shutdown())
		}
		rt.inner = inner

		return rt, nil
	})
}

// Run implements the [app.Runtime] interface.
func (rt Runtime) Run(ctx context.Context) (err error) {
	defer try.Close(&err, closerFunc(rt.shutdown))

	return rt.inner.Run(ctx)
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

type shutdowner interface {
	Shutdown(context.Context) error
}

func (rt Runtime) shutdown() error {
	var errs []error
	for _, v := range []any{rt.tracerProvider, rt.meterProvider, rt.loggerProvider} {
		s, ok := v.(shutdowner)
		if !ok {
			continue
		}

		err := s.Shutdown(context.Background())
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
