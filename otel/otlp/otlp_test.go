// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"testing"

	"github.com/z5labs/kafkahello/config"

	"github.com/stretchr/testify/require"
)

func TestProtocolFromEnv(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  Protocol
	}{
		{name: "grpc", value: "grpc", want: ProtocolGrpc},
		{name: "http/protobuf", value: "http/protobuf", want: ProtocolHttpProtobuf},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", tc.value)

			p, err := config.Read(context.Background(), ProtocolFromEnv())
			require.NoError(t, err)
			require.Equal(t, tc.want, p)
		})
	}

	t.Run("will reject unknown protocols", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/json")

		_, err := config.Read(context.Background(), ProtocolFromEnv())

		var perr UnsupportedProtocolError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "http/json", perr.Protocol)
	})
}

func TestEndpointFromEnv(t *testing.T) {
	t.Run("will prefer the signal specific endpoint", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "traces:4317")

		endpoint, err := config.Read(context.Background(), endpointFromEnv("TRACES"))
		require.NoError(t, err)
		require.Equal(t, "traces:4317", endpoint)
	})

	t.Run("will fall back to the shared endpoint", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

		endpoint, err := config.Read(context.Background(), endpointFromEnv("LOGS"))
		require.NoError(t, err)
		require.Equal(t, "collector:4317", endpoint)
	})
}

func TestTraceExporter_Read(t *testing.T) {
	t.Run("will not be set without an endpoint", func(t *testing.T) {
		_, err := config.Read(context.Background(), TraceExporter{
			Endpoint: config.EmptyReader[string](),
		})
		require.ErrorIs(t, err, config.ErrValueNotSet)
	})

	t.Run("will build a grpc exporter", func(t *testing.T) {
		t.Cleanup(func() { CloseConns() })

		exp, err := config.Read(context.Background(), TraceExporter{
			Endpoint: config.ReaderOf("http://localhost:4317"),
		})
		require.NoError(t, err)
		require.NoError(t, exp.Shutdown(context.Background()))

		_, ok := conns.Get("localhost:4317")
		require.True(t, ok)
	})

	t.Run("will build an http exporter", func(t *testing.T) {
		exp, err := config.Read(context.Background(), TraceExporter{
			Protocol: config.ReaderOf(ProtocolHttpProtobuf),
			Endpoint: config.ReaderOf("localhost:4318"),
		})
		require.NoError(t, err)
		require.NoError(t, exp.Shutdown(context.Background()))
	})
}

func TestMetricExporter_Read(t *testing.T) {
	t.Run("will not be set without an endpoint", func(t *testing.T) {
		_, err := config.Read(context.Background(), MetricExporter{})
		require.ErrorIs(t, err, config.ErrValueNotSet)
	})

	t.Run("will share the grpc connection with other signals", func(t *testing.T) {
		t.Cleanup(func() { CloseConns() })

		_, err := config.Read(context.Background(), MetricExporter{
			Endpoint: config.ReaderOf("localhost:4317"),
		})
		require.NoError(t, err)

		_, err = config.Read(context.Background(), LogExporter{
			Endpoint: config.ReaderOf("localhost:4317"),
		})
		require.NoError(t, err)

		require.Len(t, conns.Drain(), 1)
	})

	t.Run("will build an http exporter from a url", func(t *testing.T) {
		exp, err := config.Read(context.Background(), MetricExporter{
			Protocol: config.ReaderOf(ProtocolHttpProtobuf),
			Endpoint: config.ReaderOf("http://localhost:4318"),
		})
		require.NoError(t, err)
		require.NotNil(t, exp)
	})
}

func TestLogExporter_Read(t *testing.T) {
	t.Run("will fail on an unsupported protocol", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")

		_, err := config.Read(context.Background(), LogExporter{
			Protocol: ProtocolFromEnv(),
			Endpoint: config.ReaderOf("localhost:4317"),
		})
		require.ErrorAs(t, err, &UnsupportedProtocolError{})
	})
}

func TestStripScheme(t *testing.T) {
	require.Equal(t, "collector:4317", stripScheme("https://collector:4317"))
	require.Equal(t, "collector:4317", stripScheme("collector:4317"))
}
