// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Run("will return value if environment variable is set", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_VALUE", "hello")

		v, err := Read(context.Background(), Env("CONFIG_TEST_VALUE"))
		require.NoError(t, err)
		require.Equal(t, "hello", v)
	})

	t.Run("will treat empty environment variable as not set", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_VALUE", "")

		_, err := Read(context.Background(), Env("CONFIG_TEST_VALUE"))
		require.ErrorIs(t, err, ErrValueNotSet)
	})
}

func TestOr(t *testing.T) {
	t.Run("will return the first set value", func(t *testing.T) {
		r := Or(EmptyReader[string](), nil, ReaderOf("second"), ReaderOf("third"))

		v, err := Read(context.Background(), r)
		require.NoError(t, err)
		require.Equal(t, "second", v)
	})

	t.Run("will return the first error", func(t *testing.T) {
		readErr := errors.New("failed")
		r := Or(
			ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
				return Value[string]{}, readErr
			}),
			ReaderOf("unused"),
		)

		_, err := Read(context.Background(), r)
		require.ErrorIs(t, err, readErr)
	})

	t.Run("will not have a value if no readers do", func(t *testing.T) {
		_, err := Read(context.Background(), Or(EmptyReader[int]()))
		require.ErrorIs(t, err, ErrValueNotSet)
	})
}

func TestMustOr(t *testing.T) {
	t.Run("will return default for nil reader", func(t *testing.T) {
		v := MustOr[int](context.Background(), 5, nil)
		require.Equal(t, 5, v)
	})

	t.Run("will return default for empty reader", func(t *testing.T) {
		v := MustOr(context.Background(), time.Second, EmptyReader[time.Duration]())
		require.Equal(t, time.Second, v)
	})

	t.Run("will panic on parse errors", func(t *testing.T) {
		require.Panics(t, func() {
			MustOr(context.Background(), 1, IntFromString(ReaderOf("one")))
		})
	})
}

func TestMust(t *testing.T) {
	t.Run("will panic if value is not set", func(t *testing.T) {
		require.PanicsWithValue(t, ErrValueNotSet, func() {
			Must(context.Background(), EmptyReader[string]())
		})
	})
}

func TestFromString(t *testing.T) {
	t.Run("will parse ints", func(t *testing.T) {
		v, err := Read(context.Background(), IntFromString(ReaderOf("42")))
		require.NoError(t, err)
		require.Equal(t, 42, v)
	})

	t.Run("will parse durations", func(t *testing.T) {
		v, err := Read(context.Background(), DurationFromString(ReaderOf("1m30s")))
		require.NoError(t, err)
		require.Equal(t, 90*time.Second, v)
	})

	t.Run("will parse bools", func(t *testing.T) {
		v, err := Read(context.Background(), BoolFromString(ReaderOf("true")))
		require.NoError(t, err)
		require.True(t, v)
	})

	t.Run("will parse floats", func(t *testing.T) {
		v, err := Read(context.Background(), Float64FromString(ReaderOf("0.25")))
		require.NoError(t, err)
		require.Equal(t, 0.25, v)
	})

	t.Run("will return a ParseError for invalid input", func(t *testing.T) {
		_, err := Read(context.Background(), Int64FromString(ReaderOf("abc")))

		var perr ParseError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "abc", perr.Value)
		require.Equal(t, "int64", perr.Type)
	})

	t.Run("will propagate not set", func(t *testing.T) {
		_, err := Read(context.Background(), IntFromString(EmptyReader[string]()))
		require.ErrorIs(t, err, ErrValueNotSet)
	})
}
