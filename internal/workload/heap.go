// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package workload

import (
	"os"
	"runtime/debug"
	"sync/atomic"
)

// BlockSize is the size of every block held by a [Heap].
const BlockSize = 1 << 20

// Heap holds a single set of memory blocks.
//
// Concurrent calls to Allocate and Release are safe. The last writer
// wins so a Release racing an Allocate may report either set.
type Heap struct {
	blocks atomic.Pointer[[][]byte]

	// freeOSMemory is called after a release. Defaults to debug.FreeOSMemory.
	freeOSMemory func()
}

// Allocate replaces the held set with mb freshly allocated blocks and
// returns the number of blocks now held. Every page of every block is
// written so the memory is resident.
func (h *Heap) Allocate(mb int) int {
	mb = clampMin(mb, 0)

	pageSize := os.Getpagesize()
	blocks := make([][]byte, mb)
	for i := range blocks {
		b := make([]byte, BlockSize)
		for j := 0; j < len(b); j += pageSize {
			b[j] = 1
		}
		blocks[i] = b
	}

	h.blocks.Store(&blocks)
	return len(blocks)
}

// Release drops the held set and returns how many blocks it contained.
// Returning the memory to the operating system happens in the background
// and only when something was held.
func (h *Heap) Release() int {
	prev := h.blocks.Swap(&[][]byte{})
	if prev == nil || len(*prev) == 0 {
		return 0
	}

	free := h.freeOSMemory
	if free == nil {
		free = debug.FreeOSMemory
	}
	go free()

	return len(*prev)
}

// Held returns the number of blocks currently held.
func (h *Heap) Held() int {
	blocks := h.blocks.Load()
	if blocks == nil {
		return 0
	}
	return len(*blocks)
}
