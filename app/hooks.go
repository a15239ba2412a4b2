// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
)

// HookFunc is called once the inner [Runtime] of [WithHooks] has returned.
type HookFunc func(context.Context) error

// HookRegistry collects post-run hooks while an application is being built.
type HookRegistry struct {
	hooks []HookFunc
}

// OnPostRun registers hook. Hooks run in registration order.
func (r *HookRegistry) OnPostRun(hook HookFunc) {
	r.hooks = append(r.hooks, hook)
}

// HookedRuntime runs registered hooks after its inner [Runtime] returns.
type HookedRuntime struct {
	inner Runtime
	hooks []HookFunc
}

// Run implements the [Runtime] interface.
//
// Every hook is called even if the inner runtime or a previous hook failed;
// all errors are joined.
func (rt HookedRuntime) Run(ctx context.Context) error {
	errs := []error{rt.inner.Run(ctx)}
	for _, hook := range rt.hooks {
		errs = append(errs, hook(ctx))
	}
	return errors.Join(errs...)
}

// WithHooks lets f register clean up logic, like closing a Kafka client,
// alongside building the [Runtime] which depends on it.
//
// If f fails, the hooks registered so far are run before returning so
// partially built resources are still released.
func WithHooks[T Runtime](f func(context.Context, *HookRegistry) (T, error)) Builder[HookedRuntime] {
	return BuilderFunc[HookedRuntime](func(ctx context.Context) (HookedRuntime, error) {
		registry := &HookRegistry{}

		inner, err := f(ctx, registry)
		if err != nil {
			errs := []error{err}
			for _, hook := range registry.hooks {
				errs = append(errs, hook(ctx))
			}
			return HookedRuntime{}, errors.Join(errs...)
		}

		return HookedRuntime{
			inner: inner,
			hooks: registry.hooks,
		}, nil
	})
}
