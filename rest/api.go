// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest builds the HTTP API of kafkahello on top of chi and
// documents every registered operation in an OpenAPI 3 schema.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/z5labs/kafkahello"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ApiOptions holds configuration values used when constructing an [Api].
type ApiOptions struct {
	mux *chi.Mux
	def *openapi3.Spec
}

// ApiOption configures an [Api].
type ApiOption interface {
	ApplyApiOption(*ApiOptions)
}

type apiOptionFunc func(*ApiOptions)

func (f apiOptionFunc) ApplyApiOption(mo *ApiOptions) {
	f(mo)
}

// Readiness serves h at GET /health/readiness.
func Readiness(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.Method(http.MethodGet, "/health/readiness", h)
	})
}

// Liveness serves h at GET /health/liveness.
func Liveness(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.Method(http.MethodGet, "/health/liveness", h)
	})
}

// Metrics serves h, usually a Prometheus scrape handler, at GET /metrics.
func Metrics(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.Method(http.MethodGet, "/metrics", h)
	})
}

// NotFound overrides the default 404 Not Found handler.
func NotFound(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.NotFound(h.ServeHTTP)
	})
}

// Api is an [http.Handler] which routes requests to the operations
// registered with [Handle] and serves their OpenAPI schema at GET /openapi.json.
type Api struct {
	handler http.Handler
}

// NewApi creates a new [Api] with the specified title and version.
func NewApi(title, version string, opts ...ApiOption) *Api {
	log := kafkahello.Logger("github.com/z5labs/kafkahello/rest")

	ao := &ApiOptions{
		mux: chi.NewMux(),
		def: &openapi3.Spec{
			Openapi: "3.0.3",
			Info: openapi3.Info{
				Title:   title,
				Version: version,
			},
		},
	}
	for _, opt := range opts {
		opt.ApplyApiOption(ao)
	}

	ao.mux.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		enc := json.NewEncoder(w)
		err := enc.Encode(ao.def)
		if err == nil {
			return
		}
		log.ErrorContext(
			r.Context(),
			"failed to encode openapi schema to json",
			slog.Any("error", err),
		)
	})

	return &Api{
		handler: otelhttp.NewHandler(ao.mux, title),
	}
}

// ServeHTTP implements the [http.Handler] interface.
func (api *Api) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	api.handler.ServeHTTP(w, req)
}
