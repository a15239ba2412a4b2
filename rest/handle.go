// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"net/http"

	"github.com/z5labs/kafkahello"

	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Handler serves an operation and describes its responses for the
// OpenAPI schema. Any returned error is handed to the operation's
// [ErrorHandler].
type Handler interface {
	Serve(http.ResponseWriter, *http.Request) error
	Responses() openapi3.Responses
}

// OperationOptions holds configuration for an operation registered with [Handle].
type OperationOptions struct {
	summary    string
	parameters []openapi3.ParameterOrRef
	transforms []func(*http.Request) (*http.Request, error)
	errHandler ErrorHandler
}

// OperationOption configures an operation created by [Handle].
type OperationOption func(*OperationOptions)

// Summary documents what the operation does.
func Summary(s string) OperationOption {
	return func(oo *OperationOptions) {
		oo.summary = s
	}
}

// OnError configures a custom [ErrorHandler] for an operation.
func OnError(eh ErrorHandler) OperationOption {
	return func(oo *OperationOptions) {
		oo.errHandler = eh
	}
}

type operationHandler struct {
	tracer     trace.Tracer
	errHandler ErrorHandler
	transforms []func(*http.Request) (*http.Request, error)
	inner      Handler
}

// Handle registers an operation with an [Api].
//
// Panics if the same method and path are registered twice.
func Handle(method string, path string, h Handler, opts ...OperationOption) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		oo := &OperationOptions{
			errHandler: defaultErrorHandler(kafkahello.Logger("github.com/z5labs/kafkahello/rest")),
		}
		for _, opt := range opts {
			opt(oo)
		}

		var op openapi3.Operation
		op.Parameters = oo.parameters
		op.Responses = h.Responses()
		if oo.summary != "" {
			op.WithSummary(oo.summary)
		}

		err := ao.def.AddOperation(method, path, op)
		if err != nil {
			panic(err)
		}

		ao.mux.Method(method, path, otelhttp.WithRouteTag(path, &operationHandler{
			tracer:     otel.Tracer("github.com/z5labs/kafkahello/rest"),
			errHandler: oo.errHandler,
			transforms: oo.transforms,
			inner:      h,
		}))
	})
}

// ServeHTTP implements [http.Handler] for operation handlers.
func (o *operationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	spanCtx, span := o.tracer.Start(r.Context(), "operationHandler.ServeHTTP")
	defer span.End()

	var err error
	defer func() {
		if err == nil {
			return
		}

		span.RecordError(err)
		o.errHandler.OnError(spanCtx, w, err)
	}()
	defer try.Recover(&err)

	r = r.WithContext(spanCtx)
	for _, transform := range o.transforms {
		r, err = transform(r)
		if err != nil {
			return
		}
	}

	err = o.inner.Serve(w, r)
}
