// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package instrument records latency and outcome metrics for workloads
// and messaging operations.
package instrument

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/z5labs/kafkahello/internal/workload"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/z5labs/kafkahello/internal/instrument"

// KindAttr is the attribute attached to every data point of a workload.
func KindAttr(kind workload.Kind) attribute.KeyValue {
	return attribute.String("workload.kind", string(kind))
}

// Operation records the outcome of a single category of operations.
type Operation struct {
	latency metric.Float64Histogram
	count   metric.Int64Counter
	errors  metric.Int64Counter
	runs    atomic.Int64
}

// NewOperation registers the "<name>.latency", "<name>.count" and
// "<name>.errors" instruments with m.
func NewOperation(m metric.Meter, name string) (*Operation, error) {
	latency, err := m.Float64Histogram(
		name+".latency",
		metric.WithDescription("Duration of "+name+" operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	count, err := m.Int64Counter(
		name+".count",
		metric.WithDescription("Number of successful "+name+" operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := m.Int64Counter(
		name+".errors",
		metric.WithDescription("Number of failed "+name+" operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	op := &Operation{
		latency: latency,
		count:   count,
		errors:  errs,
	}
	return op, nil
}

// Runs returns how many operations have been stopped.
func (op *Operation) Runs() int64 {
	return op.runs.Load()
}

// Start begins timing a single operation.
func (op *Operation) Start(ctx context.Context, attrs ...attribute.KeyValue) *Timer {
	return &Timer{
		op:    op,
		start: time.Now(),
		attrs: attrs,
	}
}

// ErrPanicked is recorded for operations which panicked.
var ErrPanicked = errors.New("operation panicked")

// Time runs fn and records its outcome under kind. A panic in fn is
// recorded as a failure before it continues unwinding.
func (op *Operation) Time(ctx context.Context, kind workload.Kind, fn func() error) error {
	t := op.Start(ctx, KindAttr(kind))

	panicked := true
	defer func() {
		if panicked {
			t.Stop(ctx, ErrPanicked)
		}
	}()

	err := fn()
	panicked = false
	t.Stop(ctx, err)
	return err
}

// Timer is a running measurement of an [Operation].
type Timer struct {
	op    *Operation
	start time.Time
	attrs []attribute.KeyValue
	once  sync.Once
}

// Stop records the elapsed time and exactly one of the success or error
// counters. Only the first call has any effect.
func (t *Timer) Stop(ctx context.Context, err error) {
	t.once.Do(func() {
		opt := metric.WithAttributes(t.attrs...)

		t.op.latency.Record(ctx, time.Since(t.start).Seconds(), opt)
		t.op.runs.Add(1)
		if err != nil {
			t.op.errors.Add(ctx, 1, opt)
			return
		}
		t.op.count.Add(ctx, 1, opt)
	})
}
