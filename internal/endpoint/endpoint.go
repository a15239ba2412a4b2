// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint maps HTTP routes onto workloads and the message gateway.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/z5labs/kafkahello/rest"
)

// Publisher sends a value to the message broker.
type Publisher interface {
	Publish(ctx context.Context, value string) error
}

func textGet(path string, p rest.TextProducer, opts ...rest.OperationOption) rest.ApiOption {
	return rest.Handle(http.MethodGet, path, rest.ProduceText(p), opts...)
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func elapsedMillis(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
