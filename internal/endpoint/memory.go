// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"fmt"

	"github.com/z5labs/kafkahello/internal/instrument"
	"github.com/z5labs/kafkahello/internal/workload"
	"github.com/z5labs/kafkahello/rest"
)

// Allocate replaces the held memory with mb MiB.
func Allocate(op *instrument.Operation, heap *workload.Heap) rest.ApiOption {
	return textGet(
		"/test/memory/allocate",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			mb := rest.QueryInt(ctx, "mb")

			var allocated int
			op.Time(ctx, workload.KindMemAllocate, func() error {
				allocated = heap.Allocate(mb)
				return nil
			})
			return fmt.Sprintf("Allocated %d MB (held blocks: %d)", allocated, heap.Held()), nil
		}),
		rest.Summary("Hold memory"),
		rest.QueryParam("mb", rest.Description("MiB to hold"), rest.DefaultInt(50)),
	)
}

// Release drops the held memory.
func Release(op *instrument.Operation, heap *workload.Heap) rest.ApiOption {
	return textGet(
		"/test/memory/release",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			var released int
			op.Time(ctx, workload.KindMemRelease, func() error {
				released = heap.Release()
				return nil
			})
			return fmt.Sprintf("Released %d MB", released), nil
		}),
		rest.Summary("Release held memory"),
	)
}
