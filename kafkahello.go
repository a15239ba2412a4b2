// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kafkahello is a demonstration service which publishes and consumes
// Kafka messages and generates synthetic CPU and memory load for exercising
// monitoring dashboards.
package kafkahello

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a [slog.Logger] backed by the global OTel logger provider.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}
