// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/z5labs/kafkahello/app"
	"github.com/z5labs/kafkahello/internal/service"
	"github.com/z5labs/kafkahello/otel"
	"github.com/z5labs/kafkahello/otel/otlp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	handler := slog.NewJSONHandler(os.Stdout, nil)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	err := app.Run(
		context.Background(),
		otel.Build(
			service.Telemetry(reg, handler),
			service.Build(service.ConfigFromEnv(reg)),
		),
	)
	err = errors.Join(err, otlp.CloseConns())
	if err == nil {
		return
	}

	app.LogError(handler, err)
	os.Exit(1)
}
