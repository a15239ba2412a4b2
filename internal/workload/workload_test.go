// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workload

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBusySpin(t *testing.T) {
	testCases := []struct {
		Name     string
		Duration time.Duration
		Min      time.Duration
	}{
		{Name: "will spin for the requested duration", Duration: 20 * time.Millisecond, Min: 20 * time.Millisecond},
		{Name: "will spin for at least a millisecond", Duration: -5 * time.Second, Min: time.Millisecond},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			start := time.Now()
			BusySpin(testCase.Duration)
			require.GreaterOrEqual(t, time.Since(start), testCase.Min)
		})
	}
}

func TestHash(t *testing.T) {
	t.Run("will compute at least one digest", func(t *testing.T) {
		algs := []string{"", SHA256, SHA512, SHA3_256, BLAKE2b256}
		for _, alg := range algs {
			n, err := Hash(alg, 0, 0)
			require.NoError(t, err, alg)
			require.GreaterOrEqual(t, n, 1, alg)
		}
	})

	t.Run("will run until the deadline", func(t *testing.T) {
		start := time.Now()
		_, err := Hash(SHA256, 15*time.Millisecond, 4)
		require.NoError(t, err)
		require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	})

	t.Run("will return an error if the algorithm is unknown", func(t *testing.T) {
		n, err := Hash("md5", time.Millisecond, 1)

		var uerr UnsupportedAlgorithmError
		require.ErrorAs(t, err, &uerr)
		require.Equal(t, "md5", uerr.Algorithm)
		require.Equal(t, "unsupported hash algorithm: md5", err.Error())
		require.Zero(t, n)
	})
}

func TestSortArrays(t *testing.T) {
	t.Run("will generate the same arrays on every call", func(t *testing.T) {
		collect := func() [][]int {
			var arrays [][]int
			sortArrays(3, 50, func(i int, a []int) {
				arrays = append(arrays, slices.Clone(a))
			})
			return arrays
		}

		first := collect()
		second := collect()
		require.Len(t, first, 3)
		require.Equal(t, first, second)
		require.NotEqual(t, first[0], first[1])
	})

	t.Run("will treat negative values as zero", func(t *testing.T) {
		var calls int
		sortArrays(-1, 10, func(int, []int) { calls++ })
		require.Zero(t, calls)

		sortArrays(2, -10, func(_ int, a []int) {
			calls++
			require.Empty(t, a)
		})
		require.Equal(t, 2, calls)

		require.NotPanics(t, func() { SortArrays(-3, -3) })
	})
}

func TestMatrixMultiply(t *testing.T) {
	t.Run("will be deterministic", func(t *testing.T) {
		first := MatrixMultiply(20, 3)
		second := MatrixMultiply(20, 3)
		require.Equal(t, first, second)
		require.Positive(t, first)
	})

	t.Run("will accumulate the top left cell of every repetition", func(t *testing.T) {
		one := MatrixMultiply(10, 1)
		three := MatrixMultiply(10, 3)
		require.InDelta(t, 3*one, three, 1e-9)
	})

	t.Run("will clamp invalid sizes", func(t *testing.T) {
		require.Zero(t, MatrixMultiply(5, -1))
		require.NotPanics(t, func() { MatrixMultiply(-4, 1) })
	})
}

func TestSieve(t *testing.T) {
	testCases := []struct {
		Limit  int
		Primes int
	}{
		{Limit: -10, Primes: 0},
		{Limit: 0, Primes: 0},
		{Limit: 1, Primes: 0},
		{Limit: 2, Primes: 1},
		{Limit: 10, Primes: 4},
		{Limit: 100, Primes: 25},
		{Limit: 1_000_000, Primes: 78498},
	}

	for _, testCase := range testCases {
		require.Equal(t, testCase.Primes, Sieve(testCase.Limit), "limit %d", testCase.Limit)
	}
}

func TestHeap(t *testing.T) {
	newHeap := func(freed chan struct{}) *Heap {
		return &Heap{
			freeOSMemory: func() { freed <- struct{}{} },
		}
	}

	t.Run("will report nothing released if nothing was allocated", func(t *testing.T) {
		var h Heap
		require.Zero(t, h.Held())
		require.Zero(t, h.Release())
	})

	t.Run("will release what was allocated", func(t *testing.T) {
		freed := make(chan struct{}, 2)
		h := newHeap(freed)

		require.Equal(t, 3, h.Allocate(3))
		require.Equal(t, 3, h.Held())
		require.Equal(t, 3, h.Release())
		require.Zero(t, h.Held())
		require.Zero(t, h.Release())

		select {
		case <-freed:
		case <-time.After(5 * time.Second):
			t.Fatal("memory was never returned to the os")
		}

		select {
		case <-freed:
			t.Fatal("memory was returned to the os for an empty set")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("will not return memory to the os if nothing was held", func(t *testing.T) {
		freed := make(chan struct{}, 2)
		h := newHeap(freed)

		require.Zero(t, h.Release())
		h.Allocate(0)
		require.Zero(t, h.Release())

		select {
		case <-freed:
			t.Fatal("memory was returned to the os for an empty set")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("will replace the held set", func(t *testing.T) {
		h := newHeap(make(chan struct{}, 2))

		h.Allocate(4)
		h.Allocate(1)
		require.Equal(t, 1, h.Held())
	})

	t.Run("will treat negative sizes as zero", func(t *testing.T) {
		var h Heap
		require.Zero(t, h.Allocate(-2))
		require.Zero(t, h.Held())
	})

	t.Run("will allocate full blocks", func(t *testing.T) {
		var h Heap
		h.Allocate(1)
		blocks := *h.blocks.Load()
		require.Len(t, blocks[0], BlockSize)
		require.Equal(t, byte(1), blocks[0][0])
	})

	t.Run("will be safe for concurrent use", func(t *testing.T) {
		h := newHeap(make(chan struct{}, 16))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				h.Allocate(1)
			}()
			go func() {
				defer wg.Done()
				h.Release()
			}()
		}
		wg.Wait()

		require.LessOrEqual(t, h.Held(), 1)
	})
}

func TestMixed_Run(t *testing.T) {
	t.Run("will run every iteration", func(t *testing.T) {
		m := DefaultMixed()
		m.Spin = time.Millisecond
		m.HashDuration = time.Millisecond

		start := time.Now()
		err := m.Run(3)
		require.NoError(t, err)
		require.GreaterOrEqual(t, time.Since(start), 6*time.Millisecond)
	})

	t.Run("will return the hash error", func(t *testing.T) {
		m := DefaultMixed()
		m.HashAlgorithm = "md5"

		err := m.Run(2)

		var uerr UnsupportedAlgorithmError
		require.ErrorAs(t, err, &uerr)
	})

	t.Run("will do nothing for negative iterations", func(t *testing.T) {
		m := Mixed{HashAlgorithm: "md5"}
		require.NoError(t, m.Run(-1))
	})
}
