// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package instrument

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// HeldBlocks reports the size of the currently held memory.
type HeldBlocks interface {
	Held() int
}

// Recorder owns one [Operation] per category along with the live gauges.
type Recorder struct {
	CPU     *Operation
	Memory  *Operation
	Publish *Operation
	Consume *Operation
	Load    *Operation
}

// NewRecorder registers every instrument with a meter from mp.
func NewRecorder(mp metric.MeterProvider, heap HeldBlocks) (*Recorder, error) {
	m := mp.Meter(instrumentationName)

	var r Recorder
	ops := []struct {
		name string
		op   **Operation
	}{
		{name: "cpu.test", op: &r.CPU},
		{name: "memory.test", op: &r.Memory},
		{name: "kafka.publish", op: &r.Publish},
		{name: "kafka.consume", op: &r.Consume},
		{name: "load.test", op: &r.Load},
	}
	for _, o := range ops {
		op, err := NewOperation(m, o.name)
		if err != nil {
			return nil, err
		}
		*o.op = op
	}

	_, err := m.Int64ObservableGauge(
		"cpu.tests.run",
		metric.WithDescription("Number of CPU tests run"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			o.Observe(r.CPU.Runs())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = m.Int64ObservableGauge(
		"memory.tests.run",
		metric.WithDescription("Number of memory tests run"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			o.Observe(r.Memory.Runs())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = m.Int64ObservableGauge(
		"memory.held.blocks",
		metric.WithDescription("Number of 1 MiB blocks currently held"),
		metric.WithUnit("{block}"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			o.Observe(int64(heap.Held()))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}
