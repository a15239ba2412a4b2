// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	ran bool
	err error
	run func(context.Context) error
}

func (f *fakeRuntime) Run(ctx context.Context) error {
	f.ran = true
	if f.run != nil {
		return f.run(ctx)
	}
	return f.err
}

func TestWithHooks(t *testing.T) {
	t.Run("will run hooks in registration order after the runtime", func(t *testing.T) {
		var order []string
		rt := &fakeRuntime{
			run: func(ctx context.Context) error {
				order = append(order, "runtime")
				return nil
			},
		}

		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				order = append(order, "close producer")
				return nil
			})
			h.OnPostRun(func(ctx context.Context) error {
				order = append(order, "flush metrics")
				return nil
			})
			return rt, nil
		})

		hooked, err := builder.Build(context.Background())
		require.NoError(t, err)

		err = hooked.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"runtime", "close producer", "flush metrics"}, order)
	})

	t.Run("will run every hook and join all errors", func(t *testing.T) {
		runErr := errors.New("runtime failed")
		hookErr1 := errors.New("hook 1 failed")
		hookErr2 := errors.New("hook 2 failed")

		var called int
		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				called++
				return hookErr1
			})
			h.OnPostRun(func(ctx context.Context) error {
				called++
				return nil
			})
			h.OnPostRun(func(ctx context.Context) error {
				called++
				return hookErr2
			})
			return &fakeRuntime{err: runErr}, nil
		})

		hooked, err := builder.Build(context.Background())
		require.NoError(t, err)

		err = hooked.Run(context.Background())
		require.ErrorIs(t, err, runErr)
		require.ErrorIs(t, err, hookErr1)
		require.ErrorIs(t, err, hookErr2)
		require.Equal(t, 3, called)
	})

	t.Run("will run registered hooks if building fails", func(t *testing.T) {
		buildErr := errors.New("build failed")

		var closed bool
		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				closed = true
				return nil
			})
			return nil, buildErr
		})

		_, err := builder.Build(context.Background())
		require.ErrorIs(t, err, buildErr)
		require.True(t, closed)
	})

	t.Run("will pass the run context to hooks", func(t *testing.T) {
		type ctxKey struct{}

		var got any
		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				got = ctx.Value(ctxKey{})
				return nil
			})
			return &fakeRuntime{}, nil
		})

		hooked, err := builder.Build(context.Background())
		require.NoError(t, err)

		ctx := context.WithValue(context.Background(), ctxKey{}, "demo")
		require.NoError(t, hooked.Run(ctx))
		require.Equal(t, "demo", got)
	})
}
