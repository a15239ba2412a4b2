// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/z5labs/kafkahello/internal/instrument"
	"github.com/z5labs/kafkahello/internal/workload"
	"github.com/z5labs/kafkahello/rest"
)

// Load runs iterations rounds of mixed load.
func Load(op *instrument.Operation, mixed workload.Mixed) rest.ApiOption {
	return textGet(
		"/test/load",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			iterations := rest.QueryInt(ctx, "iterations")

			start := time.Now()
			err := op.Time(ctx, workload.KindMixedLoad, func() error {
				return mixed.Run(iterations)
			})
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			return fmt.Sprintf("Completed %d load iterations in %d ms", iterations, elapsedMillis(start)), nil
		}),
		rest.Summary("Run mixed load"),
		rest.QueryParam("iterations", rest.Description("Number of rounds"), rest.DefaultInt(10)),
	)
}
