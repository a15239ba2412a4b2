// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// TextProducer produces a plain text response body.
type TextProducer interface {
	Produce(context.Context) (string, error)
}

// TextProducerFunc is an adapter to allow the use of ordinary functions as [TextProducer]s.
type TextProducerFunc func(context.Context) (string, error)

// Produce implements the [TextProducer] interface.
func (f TextProducerFunc) Produce(ctx context.Context) (string, error) {
	return f(ctx)
}

// TextHandler is a [Handler] which writes the output of a [TextProducer]
// as a text/plain 200 response.
type TextHandler struct {
	p TextProducer
}

// ProduceText returns a [TextHandler] for p.
func ProduceText(p TextProducer) TextHandler {
	return TextHandler{p: p}
}

// Serve implements the [Handler] interface.
func (h TextHandler) Serve(w http.ResponseWriter, r *http.Request) error {
	body, err := h.p.Produce(r.Context())
	if err != nil {
		return err
	}

	writeText(w, http.StatusOK, body)
	return nil
}

// Responses implements the [Handler] interface.
func (h TextHandler) Responses() openapi3.Responses {
	var body jsonschema.Schema
	body.AddType(jsonschema.String)

	var schema openapi3.SchemaOrRef
	schema.FromJSONSchema(body.ToSchemaOrBool())

	textResponse := func(description string) openapi3.ResponseOrRef {
		return openapi3.ResponseOrRef{
			Response: &openapi3.Response{
				Description: description,
				Content: map[string]openapi3.MediaType{
					"text/plain": {Schema: &schema},
				},
			},
		}
	}

	return openapi3.Responses{
		MapOfResponseOrRefValues: map[string]openapi3.ResponseOrRef{
			strconv.Itoa(http.StatusOK):                  textResponse("OK"),
			strconv.Itoa(http.StatusBadRequest):          textResponse("Invalid query parameter"),
			strconv.Itoa(http.StatusInternalServerError): textResponse("Unexpected failure"),
		},
	}
}
