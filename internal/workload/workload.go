// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package workload provides synthetic CPU and memory load generators.
//
// Every generator runs synchronously on the calling goroutine. Generators
// which need pseudo-random input use a fixed seed per kind so repeated calls
// with the same parameters perform the same amount of work.
package workload

// Kind identifies a workload generator.
type Kind string

const (
	KindBusySpin       Kind = "busy-spin"
	KindHash           Kind = "hash"
	KindSort           Kind = "sort"
	KindMatrixMultiply Kind = "matrix-multiply"
	KindSieve          Kind = "sieve"
	KindMemAllocate    Kind = "mem-allocate"
	KindMemRelease     Kind = "mem-release"
	KindMixedLoad      Kind = "mixed-load"
)

// Seeds used for generating pseudo-random input.
const (
	HashSeed   uint64 = 42
	SortSeed   uint64 = 123
	MatrixSeed uint64 = 7
)

func clampMin[T ~int | ~int64](v, lo T) T {
	if v < lo {
		return lo
	}
	return v
}
