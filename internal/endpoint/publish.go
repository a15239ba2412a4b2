// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"

	"github.com/z5labs/kafkahello/rest"
)

type publishHandler struct {
	publisher Publisher
}

// Publish sends the msg query parameter to the demo topic.
func Publish(p Publisher) rest.ApiOption {
	h := &publishHandler{
		publisher: p,
	}

	return textGet(
		"/publish",
		h,
		rest.Summary("Publish a message"),
		rest.QueryParam(
			"msg",
			rest.Description("Value of the published message"),
			rest.DefaultString("Hello Kafka!"),
		),
	)
}

// Produce implements the [rest.TextProducer] interface.
func (h *publishHandler) Produce(ctx context.Context) (string, error) {
	msg := rest.QueryString(ctx, "msg")

	err := h.publisher.Publish(ctx, msg)
	if err != nil {
		return "", err
	}
	return "Sent to Kafka: " + msg, nil
}
