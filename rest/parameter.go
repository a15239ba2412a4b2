// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ParameterOptions holds the validation rules and schema of a single parameter.
type ParameterOptions struct {
	def          *openapi3.Parameter
	schema       jsonschema.Schema
	defaultValue *string
	validators   []func(string) error
}

// ParameterOption configures a parameter created by [QueryParam].
type ParameterOption func(*ParameterOptions)

// Description documents the parameter.
func Description(s string) ParameterOption {
	return func(po *ParameterOptions) {
		po.def.WithDescription(s)
	}
}

// Required rejects requests which do not set the parameter.
func Required() ParameterOption {
	return func(po *ParameterOptions) {
		po.def.WithRequired(true)
	}
}

// DefaultString substitutes def when the parameter is absent.
func DefaultString(def string) ParameterOption {
	return func(po *ParameterOptions) {
		po.schema.AddType(jsonschema.String)
		po.schema.WithDefault(def)
		po.defaultValue = &def
	}
}

// DefaultInt substitutes def when the parameter is absent and rejects
// values which are not base 10 integers.
func DefaultInt(def int) ParameterOption {
	return func(po *ParameterOptions) {
		s := strconv.Itoa(def)

		po.schema.AddType(jsonschema.Integer)
		po.schema.WithDefault(def)
		po.defaultValue = &s
		po.validators = append(po.validators, func(v string) error {
			_, err := strconv.Atoi(v)
			return err
		})
	}
}

// MissingRequiredParameterError is returned when a [Required] parameter is absent.
type MissingRequiredParameterError struct {
	Parameter string
	In        string
}

func (e MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("missing required %s parameter: %s", e.In, e.Parameter)
}

// InvalidParameterValueError is returned when a parameter fails validation.
type InvalidParameterValueError struct {
	Parameter string
	In        string
	Value     string
	Cause     error
}

func (e InvalidParameterValueError) Error() string {
	return fmt.Sprintf("invalid value for %s parameter %s: %q", e.In, e.Parameter, e.Value)
}

// Unwrap returns the validation failure.
func (e InvalidParameterValueError) Unwrap() error {
	return e.Cause
}

// QueryParam registers a query parameter for an operation. Its values are
// validated before the handler runs and can be read with [QueryParamValue].
func QueryParam(name string, opts ...ParameterOption) OperationOption {
	return func(oo *OperationOptions) {
		po := &ParameterOptions{
			def: &openapi3.Parameter{
				Name: name,
				In:   openapi3.ParameterInQuery,
			},
		}
		for _, opt := range opts {
			opt(po)
		}

		var schema openapi3.SchemaOrRef
		schema.FromJSONSchema(po.schema.ToSchemaOrBool())
		po.def.Schema = &schema

		oo.parameters = append(oo.parameters, openapi3.ParameterOrRef{
			Parameter: po.def,
		})
		oo.transforms = append(oo.transforms, injectQueryParam(po))
	}
}

type paramCtxKey string

func injectQueryParam(po *ParameterOptions) func(*http.Request) (*http.Request, error) {
	name := po.def.Name
	in := string(po.def.In)

	return func(r *http.Request) (*http.Request, error) {
		values := r.URL.Query()[name]
		if len(values) == 0 && po.defaultValue != nil {
			values = []string{*po.defaultValue}
		}
		if len(values) == 0 && po.def.Required != nil && *po.def.Required {
			return nil, BadRequestError{
				Cause: MissingRequiredParameterError{Parameter: name, In: in},
			}
		}

		for _, v := range values {
			for _, validate := range po.validators {
				err := validate(v)
				if err == nil {
					continue
				}
				return nil, BadRequestError{
					Cause: InvalidParameterValueError{Parameter: name, In: in, Value: v, Cause: err},
				}
			}
		}

		ctx := context.WithValue(r.Context(), paramCtxKey(name), values)
		return r.WithContext(ctx), nil
	}
}

// QueryParamValue returns the validated values of a parameter registered with [QueryParam].
func QueryParamValue(ctx context.Context, name string) []string {
	values, _ := ctx.Value(paramCtxKey(name)).([]string)
	return values
}

// QueryString returns the first value of a query parameter.
func QueryString(ctx context.Context, name string) string {
	values := QueryParamValue(ctx, name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// QueryInt returns the first value of a query parameter registered with [DefaultInt].
func QueryInt(ctx context.Context, name string) int {
	n, _ := strconv.Atoi(QueryString(ctx, name))
	return n
}
