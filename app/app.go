// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides the build and run lifecycle shared by every kafkahello process.
//
// An application is assembled from [Builder]s, which are resolved once at startup,
// into a [Runtime], which runs until its context is cancelled.
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/z5labs/sdk-go/try"
	"golang.org/x/sync/errgroup"
)

// Builder builds a T.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a func type of the [Builder] interface.
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// Bind builds A and then uses it to select the [Builder] for B.
func Bind[A, B any](builder Builder[A], binder func(A) Builder[B]) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := builder.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return binder(a).Build(ctx)
	})
}

// Runtime is a long running component of an application.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a func type of the [Runtime] interface.
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Join runs all the given runtimes concurrently. The first one to fail
// cancels the others and its error is returned.
func Join(rts ...Runtime) Runtime {
	return RuntimeFunc(func(ctx context.Context) error {
		eg, egctx := errgroup.WithContext(ctx)
		for _, rt := range rts {
			eg.Go(func() error {
				return rt.Run(egctx)
			})
		}
		return eg.Wait()
	})
}

// Run builds and then runs the [Runtime] returned by builder.
//
// The context given to both is cancelled on SIGINT or SIGTERM. Panics raised
// while building, e.g. by config.Must, are returned as errors.
func Run[T Runtime](ctx context.Context, builder Builder[T]) error {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := build(sigCtx, builder)
	if err != nil {
		return err
	}

	return rt.Run(sigCtx)
}

func build[T any](ctx context.Context, builder Builder[T]) (t T, err error) {
	defer try.Recover(&err)

	return builder.Build(ctx)
}

// LogError logs err, if not nil, with the given handler.
func LogError(handler slog.Handler, err error) {
	if err == nil {
		return
	}

	log := slog.New(handler)
	log.Error("application error", slog.Any("error", err))
}
