// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package queue defines how inbound messages are handed to business logic.
package queue

import (
	"context"
	"errors"

	"github.com/z5labs/kafkahello/app"
)

// Processor implements the business logic for processing a message, T.
type Processor[T any] interface {
	Process(context.Context, T) error
}

// ProcessorFunc is an adapter to allow the use of ordinary functions as [Processor]s.
type ProcessorFunc[T any] func(context.Context, T) error

// Process implements the [Processor] interface.
func (f ProcessorFunc[T]) Process(ctx context.Context, t T) error {
	return f(ctx, t)
}

// QueueRuntime consumes messages until its context is cancelled.
type QueueRuntime interface {
	ProcessQueue(context.Context) error
}

// QueueRuntimeFunc is an adapter to allow the use of ordinary functions as [QueueRuntime]s.
type QueueRuntimeFunc func(context.Context) error

// ProcessQueue implements the [QueueRuntime] interface.
func (f QueueRuntimeFunc) ProcessQueue(ctx context.Context) error {
	return f(ctx)
}

// Runtime adapts a [QueueRuntime] to the [app.Runtime] interface.
type Runtime struct {
	queueRuntime QueueRuntime
}

// Run implements [app.Runtime] interface.
//
// Cancellation of ctx is a normal shutdown and is not reported as an error.
func (rt Runtime) Run(ctx context.Context) error {
	err := rt.queueRuntime.ProcessQueue(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Build returns an [app.Builder] for the [QueueRuntime] built by b.
func Build[T QueueRuntime](b app.Builder[T]) app.Builder[Runtime] {
	return app.Bind(b, func(qr T) app.Builder[Runtime] {
		return app.BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
			return Runtime{queueRuntime: qr}, nil
		})
	})
}
