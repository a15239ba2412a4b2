// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/z5labs/kafkahello/app"
	"github.com/z5labs/kafkahello/config"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type mockRuntime struct {
	runCalled bool
	runErr    error
}

func (m *mockRuntime) Run(ctx context.Context) error {
	m.runCalled = true
	return m.runErr
}

type shutdownTracerProvider struct {
	tracenoop.TracerProvider

	shutdownCalled bool
	shutdownErr    error
}

func (tp *shutdownTracerProvider) Shutdown(ctx context.Context) error {
	tp.shutdownCalled = true
	return tp.shutdownErr
}

type shutdownMeterProvider struct {
	metricnoop.MeterProvider

	shutdownCalled bool
	shutdownErr    error
}

func (mp *shutdownMeterProvider) Shutdown(ctx context.Context) error {
	mp.shutdownCalled = true
	return mp.shutdownErr
}

func TestBuild(t *testing.T) {
	t.Run("will register the configured providers globally", func(t *testing.T) {
		tp := &shutdownTracerProvider{}
		mp := &shutdownMeterProvider{}

		mock := &mockRuntime{}
		builder := Build(
			SDK{
				TracerProvider:        config.ReaderOf[trace.TracerProvider](tp),
				MeterProvider:         config.ReaderOf[metric.MeterProvider](mp),
				LoggerProvider:        config.ReaderOf[log.LoggerProvider](lognoop.NewLoggerProvider()),
				DisableRuntimeMetrics: true,
			},
			app.BuilderFunc[*mockRuntime](func(ctx context.Context) (*mockRuntime, error) {
				require.Equal(t, tp, otel.GetTracerProvider())
				return mock, nil
			}),
		)

		rt, err := builder.Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, mock, rt.inner)
		require.Equal(t, tp, rt.tracerProvider)
		require.Equal(t, mp, rt.meterProvider)
	})

	t.Run("will fall back to no-op providers", func(t *testing.T) {
		builder := Build(
			SDK{DisableRuntimeMetrics: true},
			app.BuilderFunc[*mockRuntime](func(ctx context.Context) (*mockRuntime, error) {
				return &mockRuntime{}, nil
			}),
		)

		rt, err := builder.Build(context.Background())
		require.NoError(t, err)
		require.IsType(t, tracenoop.TracerProvider{}, rt.tracerProvider)
		require.IsType(t, metricnoop.MeterProvider{}, rt.meterProvider)
		require.IsType(t, lognoop.LoggerProvider{}, rt.loggerProvider)
	})

	t.Run("will shutdown the providers if the runtime fails to build", func(t *testing.T) {
		tp := &shutdownTracerProvider{}
		mp := &shutdownMeterProvider{}
		buildErr := errors.New("failed to build")

		builder := Build(
			SDK{
				TracerProvider: config.ReaderOf[trace.TracerProvider](tp),
				MeterProvider:  config.ReaderOf[metric.MeterProvider](mp),
			},
			app.BuilderFunc[*mockRuntime](func(ctx context.Context) (*mockRuntime, error) {
				return nil, buildErr
			}),
		)

		_, err := builder.Build(context.Background())
		require.ErrorIs(t, err, buildErr)
		require.True(t, tp.shutdownCalled)
		require.True(t, mp.shutdownCalled)
	})
}

func TestRuntime_Run(t *testing.T) {
	t.Run("will shutdown every provider after the inner runtime returns", func(t *testing.T) {
		tp := &shutdownTracerProvider{}
		mp := &shutdownMeterProvider{}
		mock := &mockRuntime{}

		rt := Runtime{
			inner:          mock,
			tracerProvider: tp,
			meterProvider:  mp,
			loggerProvider: lognoop.NewLoggerProvider(),
		}

		err := rt.Run(context.Background())
		require.NoError(t, err)
		require.True(t, mock.runCalled)
		require.True(t, tp.shutdownCalled)
		require.True(t, mp.shutdownCalled)
	})

	t.Run("will return both the run and shutdown errors", func(t *testing.T) {
		runErr := errors.New("run failed")
		shutdownErr := errors.New("shutdown failed")

		rt := Runtime{
			inner:          &mockRuntime{runErr: runErr},
			tracerProvider: &shutdownTracerProvider{shutdownErr: shutdownErr},
			meterProvider:  &shutdownMeterProvider{},
			loggerProvider: lognoop.NewLoggerProvider(),
		}

		err := rt.Run(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), runErr.Error())
		require.Contains(t, err.Error(), shutdownErr.Error())
	})
}
