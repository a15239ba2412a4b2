// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/z5labs/kafkahello/config"
	httpserver "github.com/z5labs/kafkahello/http"
	"github.com/z5labs/kafkahello/queue/kafka"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func unreachableConfig(t *testing.T, reg prometheus.Gatherer) (Config, string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	brokers := config.ReaderOf([]string{"127.0.0.1:1"})

	cfg := Config{
		Version: config.ReaderOf("v1.2.3"),
		Server:  httpserver.NewServer(config.ReaderOf(ln)),
		Producer: kafka.ProducerConfig{
			Brokers:         brokers,
			DeliveryTimeout: config.ReaderOf(kafka.MinDeliveryTimeout),
		},
		Consumer: kafka.Config{
			Brokers: brokers,
		},
		TopicTimeout: config.ReaderOf(100 * time.Millisecond),
		PingTimeout:  config.ReaderOf(500 * time.Millisecond),
		Metrics:      reg,
	}
	return cfg, "http://" + ln.Addr().String()
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestBuild(t *testing.T) {
	t.Run("will serve the api without a reachable broker", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		cfg, baseURL := unreachableConfig(t, reg)

		rt, err := Build(cfg).Build(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- rt.Run(ctx)
		}()

		status, body := get(t, baseURL+"/")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "Hello World", body)

		status, body = get(t, baseURL+"/test/cpu/sieve?limit=10")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "Found 4 primes up to 10", body)

		status, _ = get(t, baseURL+"/health/liveness")
		require.Equal(t, http.StatusOK, status)

		status, _ = get(t, baseURL+"/health/readiness")
		require.Equal(t, http.StatusServiceUnavailable, status)

		status, _ = get(t, baseURL+"/publish")
		require.Equal(t, http.StatusInternalServerError, status)

		status, body = get(t, baseURL+"/openapi.json")
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, body, `"/test/memory/allocate"`)
		require.Contains(t, body, `"v1.2.3"`)

		status, _ = get(t, baseURL+"/metrics")
		require.Equal(t, http.StatusOK, status)

		cancel()
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(30 * time.Second):
			t.Fatal("service did not stop")
		}
	})
}

func TestTelemetry(t *testing.T) {
	t.Run("will expose metrics through the registry", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		var buf bytes.Buffer
		sdk := Telemetry(reg, slog.NewJSONHandler(&buf, nil))

		mp, err := config.Read(context.Background(), sdk.MeterProvider)
		require.NoError(t, err)
		defer mp.(*sdkmetric.MeterProvider).Shutdown(context.Background())

		counter, err := mp.Meter("test").Int64Counter("kafka.publish.count")
		require.NoError(t, err)
		counter.Add(context.Background(), 1)

		families, err := reg.Gather()
		require.NoError(t, err)

		var names []string
		for _, f := range families {
			names = append(names, f.GetName())
		}
		require.Contains(t, names, "kafka_publish_count_total")
	})

	t.Run("will fall back to writing logs to stdout", func(t *testing.T) {
		var buf bytes.Buffer
		sdk := Telemetry(prometheus.NewRegistry(), slog.NewJSONHandler(&buf, nil))

		lp, err := config.Read(context.Background(), sdk.LoggerProvider)
		require.NoError(t, err)

		otelslog.NewLogger("test", otelslog.WithLoggerProvider(lp)).Info("consumer started")
		require.Contains(t, buf.String(), "consumer started")
	})
}

func TestBrokerMonitor(t *testing.T) {
	testCases := []struct {
		Name    string
		Err     error
		Healthy bool
	}{
		{Name: "will be healthy if the broker responds", Healthy: true},
		{Name: "will be unhealthy if the broker does not respond", Err: errors.New("dial tcp: refused")},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			m := brokerMonitor(pingFunc(func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				require.True(t, ok)
				return testCase.Err
			}), time.Second)

			healthy, err := m.Healthy(context.Background())
			require.Equal(t, testCase.Healthy, healthy)
			require.ErrorIs(t, err, testCase.Err)
		})
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
