package freertos

// HeapStats describes the state of the kernel's heap.
type HeapStats struct {
	// AvailableBytes is the total free heap space.
	AvailableBytes uint64
	// LargestFreeBlockBytes is the size of the largest free block.
	LargestFreeBlockBytes uint64
	// SmallestFreeBlockBytes is the size of the smallest free block.
	SmallestFreeBlockBytes uint64
	// FreeBlocks is the number of free blocks.
	FreeBlocks uint64
	// MinimumEverFreeBytes is the low-water mark of free heap space.
	MinimumEverFreeBytes uint64
	// SuccessfulAllocations counts allocations since the kernel started.
	SuccessfulAllocations uint64
	// SuccessfulFrees counts frees since the kernel started.
	SuccessfulFrees uint64
}

func (s HeapStats) isZero() bool {
	return s == HeapStats{}
}

// KernelHeapStats queries the configured kernel's heap statistics.
//
// Statistics are an optional kernel capability: ok is false when no kernel is
// configured, when the kernel does not implement HeapStatsProvider, or when
// the provider reports all-zero values (which some heap implementations do
// instead of declining). Callers must tolerate a kernel that never reports
// statistics.
func KernelHeapStats() (stats HeapStats, ok bool) {
	k, err := configuredKernel()
	if err != nil {
		return HeapStats{}, false
	}

	provider, ok := k.(HeapStatsProvider)
	if !ok {
		return HeapStats{}, false
	}

	stats = provider.HeapStats()
	if stats.isZero() {
		return HeapStats{}, false
	}
	return stats, true
}
