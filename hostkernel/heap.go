package hostkernel

import (
	"sync"

	freertos "github.com/veecle/freertos-integration"
)

// heapAccount is a budget allocator: it tracks bytes, not blocks, so the
// reported statistics model the heap as one contiguous free region.
type heapAccount struct {
	mu      sync.Mutex
	total   uint64
	free    uint64
	minFree uint64
	allocs  uint64
	frees   uint64
}

func (h *heapAccount) init(total uint64) {
	h.total = total
	h.free = total
	h.minFree = total
}

func (h *heapAccount) alloc(n uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > h.free {
		return freertos.ErrOutOfMemory
	}
	h.free -= n
	if h.free < h.minFree {
		h.minFree = h.free
	}
	h.allocs++
	return nil
}

func (h *heapAccount) release(n uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.free += n
	if h.free > h.total {
		// Release without a matching alloc is a kernel bug; clamp rather
		// than corrupt the account.
		h.free = h.total
	}
	h.frees++
}

func (h *heapAccount) stats() freertos.HeapStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := freertos.HeapStats{
		AvailableBytes:        h.free,
		LargestFreeBlockBytes: h.free,
		MinimumEverFreeBytes:  h.minFree,
		SuccessfulAllocations: h.allocs,
		SuccessfulFrees:       h.frees,
	}
	if h.free > 0 {
		stats.SmallestFreeBlockBytes = h.free
		stats.FreeBlocks = 1
	}
	return stats
}
