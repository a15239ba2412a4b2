// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health reports whether the service is alive and ready to serve.
package health

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Monitor represents anything which can report its current state of health.
type Monitor interface {
	Healthy(context.Context) (bool, error)
}

// MonitorFunc adapts a function into a [Monitor].
type MonitorFunc func(context.Context) (bool, error)

// Healthy implements the [Monitor] interface.
func (f MonitorFunc) Healthy(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Binary is a [Monitor] which simply has 2 states: healthy or unhealthy.
// It is safe for concurrent use. The zero value represents an unhealthy state.
type Binary struct {
	healthy atomic.Bool
}

// MarkUnhealthy changes the state to unhealthy.
func (b *Binary) MarkUnhealthy() {
	b.healthy.Store(false)
}

// MarkHealthy changes that state to healthy.
func (b *Binary) MarkHealthy() {
	b.healthy.Store(true)
}

// Healthy implements the [Monitor] interface.
func (b *Binary) Healthy(ctx context.Context) (bool, error) {
	return b.healthy.Load(), nil
}

// AndMonitor is healthy only when every one of its monitors is.
// It stops at the first unhealthy monitor or error.
type AndMonitor []Monitor

// And groups ms into an [AndMonitor].
func And(ms ...Monitor) AndMonitor {
	return AndMonitor(ms)
}

// Healthy implements the [Monitor] interface.
func (am AndMonitor) Healthy(ctx context.Context) (bool, error) {
	for _, m := range am {
		healthy, err := m.Healthy(ctx)
		if !healthy || err != nil {
			return false, err
		}
	}
	return true, nil
}

// Handler serves the state of m: 200 when healthy and 503 otherwise.
func Handler(log *slog.Logger, m Monitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		healthy, err := m.Healthy(ctx)
		if err != nil {
			log.WarnContext(ctx, "health check failed", slog.Any("error", err))
		}
		if healthy && err == nil {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "OK")
			return
		}

		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, http.StatusText(http.StatusServiceUnavailable))
	})
}
