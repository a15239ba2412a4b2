// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides composable, lazily evaluated configuration readers.
//
// A [Reader] produces a [Value] which may or may not be set. Readers are
// combined with helpers like [Or], [Default] and [Map] and resolved at
// build time with [Read], [Must] or [MustOr].
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrValueNotSet is returned by [Read] when a [Reader] produced no value.
var ErrValueNotSet = errors.New("config: value not set")

// Value holds the result of reading a configuration value.
// The zero Value represents the absence of a value.
type Value[T any] struct {
	v   T
	set bool
}

// ValueOf returns a set [Value] containing v.
func ValueOf[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Value returns the underlying value and whether it was set.
func (v Value[T]) Value() (T, bool) {
	return v.v, v.set
}

// Reader reads a configuration value of type T.
type Reader[T any] interface {
	Read(context.Context) (Value[T], error)
}

// ReaderFunc is an adapter to allow the use of ordinary functions as [Reader]s.
type ReaderFunc[T any] func(context.Context) (Value[T], error)

// Read implements the [Reader] interface.
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// ReaderOf returns a [Reader] which always returns v.
func ReaderOf[T any](v T) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// EmptyReader returns a [Reader] which never has a value.
func EmptyReader[T any]() Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return Value[T]{}, nil
	})
}

// Env reads the named environment variable. Unset and empty variables
// are both treated as not set.
func Env(name string) Reader[string] {
	return ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return Value[string]{}, nil
		}
		return ValueOf(v), nil
	})
}

// Or returns the value of the first [Reader] which has one.
// Nil readers are skipped.
func Or[T any](rs ...Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		for _, r := range rs {
			if r == nil {
				continue
			}

			val, err := r.Read(ctx)
			if err != nil {
				return Value[T]{}, err
			}
			if _, ok := val.Value(); ok {
				return val, nil
			}
		}
		return Value[T]{}, nil
	})
}

// Default returns def when r does not have a value.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return Or(r, ReaderOf(def))
}

// Map transforms the value of r, if one is set, with f.
func Map[A, B any](r Reader[A], f func(context.Context, A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		if r == nil {
			return Value[B]{}, nil
		}

		val, err := r.Read(ctx)
		if err != nil {
			return Value[B]{}, err
		}

		a, ok := val.Value()
		if !ok {
			return Value[B]{}, nil
		}

		b, err := f(ctx, a)
		if err != nil {
			return Value[B]{}, err
		}
		return ValueOf(b), nil
	})
}

// Read resolves r. It returns [ErrValueNotSet] if r has no value.
func Read[T any](ctx context.Context, r Reader[T]) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrValueNotSet
	}

	val, err := r.Read(ctx)
	if err != nil {
		return zero, err
	}

	v, ok := val.Value()
	if !ok {
		return zero, ErrValueNotSet
	}
	return v, nil
}

// Must is like [Read] but panics on any error.
func Must[T any](ctx context.Context, r Reader[T]) T {
	v, err := Read(ctx, r)
	if err != nil {
		panic(err)
	}
	return v
}

// MustOr resolves r and falls back to def if r is nil or has no value.
// It panics if r returns an error.
func MustOr[T any](ctx context.Context, def T, r Reader[T]) T {
	v, err := Read(ctx, r)
	if errors.Is(err, ErrValueNotSet) {
		return def
	}
	if err != nil {
		panic(err)
	}
	return v
}

// ParseError describes a value which could not be parsed into the wanted type.
type ParseError struct {
	Value string
	Type  string
	Cause error
}

// Error implements the [error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("config: failed to parse %q as %s: %s", e.Value, e.Type, e.Cause)
}

// Unwrap returns the underlying parse error.
func (e ParseError) Unwrap() error {
	return e.Cause
}

func parse[T any](r Reader[string], typ string, f func(string) (T, error)) Reader[T] {
	return Map(r, func(ctx context.Context, s string) (T, error) {
		v, err := f(s)
		if err != nil {
			var zero T
			return zero, ParseError{Value: s, Type: typ, Cause: err}
		}
		return v, nil
	})
}

// IntFromString parses the string value of r as a base 10 int.
func IntFromString(r Reader[string]) Reader[int] {
	return parse(r, "int", strconv.Atoi)
}

// Int64FromString parses the string value of r as a base 10 int64.
func Int64FromString(r Reader[string]) Reader[int64] {
	return parse(r, "int64", func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// Float64FromString parses the string value of r as a float64.
func Float64FromString(r Reader[string]) Reader[float64] {
	return parse(r, "float64", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// BoolFromString parses the string value of r with [strconv.ParseBool].
func BoolFromString(r Reader[string]) Reader[bool] {
	return parse(r, "bool", strconv.ParseBool)
}

// DurationFromString parses the string value of r with [time.ParseDuration].
func DurationFromString(r Reader[string]) Reader[time.Duration] {
	return parse(r, "duration", time.ParseDuration)
}
