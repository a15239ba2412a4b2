// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafkahello

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type recordingExporter struct {
	records []sdklog.Record
}

func (e *recordingExporter) Export(ctx context.Context, records []sdklog.Record) error {
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) ForceFlush(ctx context.Context) error { return nil }

func (e *recordingExporter) Shutdown(ctx context.Context) error { return nil }

func TestLogger(t *testing.T) {
	exp := &recordingExporter{}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))

	prev := global.GetLoggerProvider()
	global.SetLoggerProvider(lp)
	t.Cleanup(func() { global.SetLoggerProvider(prev) })

	Logger("endpoint").Info("Hello World")

	require.Len(t, exp.records, 1)
	require.Equal(t, "Hello World", exp.records[0].Body().AsString())
	require.Equal(t, "endpoint", exp.records[0].InstrumentationScope().Name)
}
