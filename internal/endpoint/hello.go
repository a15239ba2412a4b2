// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"

	"github.com/z5labs/kafkahello/rest"
)

// Hello returns the fixed greeting.
func Hello() rest.ApiOption {
	return textGet(
		"/",
		rest.TextProducerFunc(func(ctx context.Context) (string, error) {
			return "Hello World", nil
		}),
		rest.Summary("Greeting"),
	)
}
