// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workload

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"math/rand/v2"
	"slices"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// BusySpin loops without doing any work until d has elapsed.
// Durations below one millisecond are raised to one millisecond.
func BusySpin(d time.Duration) {
	d = clampMin(d, time.Millisecond)

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// Supported hash algorithms.
const (
	SHA256     = "sha256"
	SHA512     = "sha512"
	SHA3_256   = "sha3-256"
	BLAKE2b256 = "blake2b-256"
)

// UnsupportedAlgorithmError is returned by [Hash] for an unknown algorithm.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

// Error implements the [error] interface.
func (e UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported hash algorithm: %s", e.Algorithm)
}

func newHash(alg string) (hash.Hash, error) {
	switch alg {
	case "", SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case SHA3_256:
		return sha3.New256(), nil
	case BLAKE2b256:
		return blake2b.New256(nil)
	default:
		return nil, UnsupportedAlgorithmError{Algorithm: alg}
	}
}

// Hash repeatedly digests a payloadKB sized buffer with alg until d has
// elapsed and returns the number of digests computed. At least one digest
// is always computed. An empty alg selects [SHA256].
func Hash(alg string, d time.Duration, payloadKB int) (int, error) {
	h, err := newHash(alg)
	if err != nil {
		return 0, err
	}
	d = clampMin(d, time.Millisecond)
	payloadKB = clampMin(payloadKB, 1)

	r := rand.New(rand.NewPCG(HashSeed, HashSeed))
	payload := make([]byte, payloadKB*1024)
	for i := range payload {
		payload[i] = byte(r.UintN(256))
	}

	sum := make([]byte, 0, h.Size())
	deadline := time.Now().Add(d)
	iterations := 0
	for {
		h.Reset()
		h.Write(payload)
		sum = h.Sum(sum[:0])
		iterations++

		if !time.Now().Before(deadline) {
			return iterations, nil
		}
	}
}

// SortArrays fills arrays slices of size pseudo-random integers and sorts
// each one in ascending order. Negative values are treated as zero.
func SortArrays(arrays, size int) {
	sortArrays(arrays, size, nil)
}

func sortArrays(arrays, size int, inspect func(int, []int)) {
	arrays = clampMin(arrays, 0)
	size = clampMin(size, 0)

	r := rand.New(rand.NewPCG(SortSeed, SortSeed))
	a := make([]int, size)
	for i := range arrays {
		for j := range a {
			a[j] = r.Int()
		}
		if inspect != nil {
			inspect(i, a)
		}
		slices.Sort(a)
	}
}

// MatrixMultiply generates two n by n matrices and multiplies them reps
// times. The returned value is the sum of the top left cell of every
// product.
func MatrixMultiply(n, reps int) float64 {
	n = clampMin(n, 1)
	reps = clampMin(reps, 0)

	r := rand.New(rand.NewPCG(MatrixSeed, MatrixSeed))
	a := newMatrix(n, r)
	b := newMatrix(n, r)
	c := newMatrix(n, nil)

	var sum float64
	for range reps {
		for i := range n {
			for j := range n {
				var cell float64
				for k := range n {
					cell += a[i][k] * b[k][j]
				}
				c[i][j] = cell
			}
		}
		sum += c[0][0]
	}
	return sum
}

func newMatrix(n int, r *rand.Rand) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		if r == nil {
			continue
		}
		for j := range m[i] {
			m[i][j] = r.Float64()
		}
	}
	return m
}

// Sieve returns the number of primes less than or equal to limit using
// the sieve of Eratosthenes.
func Sieve(limit int) int {
	if limit < 2 {
		return 0
	}

	composite := make([]bool, limit+1)
	for p := 2; p*p <= limit; p++ {
		if composite[p] {
			continue
		}
		for m := p * p; m <= limit; m += p {
			composite[m] = true
		}
	}

	count := 0
	for i := 2; i <= limit; i++ {
		if !composite[i] {
			count++
		}
	}
	return count
}
