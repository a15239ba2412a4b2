// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workload

import (
	"fmt"
	"time"
)

// Mixed runs a short busy-spin, hash-loop and sort-arrays per iteration.
type Mixed struct {
	Spin          time.Duration
	HashAlgorithm string
	HashDuration  time.Duration
	PayloadKB     int
	Arrays        int
	ArraySize     int
}

// DefaultMixed returns the load used by the load test endpoint.
func DefaultMixed() Mixed {
	return Mixed{
		Spin:          10 * time.Millisecond,
		HashAlgorithm: SHA256,
		HashDuration:  10 * time.Millisecond,
		PayloadKB:     1,
		Arrays:        2,
		ArraySize:     1000,
	}
}

// Run performs iterations rounds of load. Negative values are treated
// as zero.
func (m Mixed) Run(iterations int) error {
	for i := range clampMin(iterations, 0) {
		BusySpin(m.Spin)

		_, err := Hash(m.HashAlgorithm, m.HashDuration, m.PayloadKB)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}

		SortArrays(m.Arrays, m.ArraySize)
	}
	return nil
}
