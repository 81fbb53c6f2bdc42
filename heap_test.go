package freertos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	freertos "github.com/veecle/freertos-integration"
)

// statlessKernel is a kernel without heap statistics support. Only the
// methods the heap query path touches matter; everything else is inherited
// from the embedded nil interface and never called.
type statlessKernel struct {
	freertos.Kernel
}

// zeroStatsKernel reports all-zero statistics, as heap implementations
// without bookkeeping do.
type zeroStatsKernel struct {
	freertos.Kernel
}

func (zeroStatsKernel) HeapStats() freertos.HeapStats {
	return freertos.HeapStats{}
}

func TestKernelHeapStats(t *testing.T) {
	newTestKernel(t)

	stats, ok := freertos.KernelHeapStats()
	require.True(t, ok)
	assert.NotZero(t, stats.AvailableBytes)
	assert.NotZero(t, stats.MinimumEverFreeBytes)

	before := stats.AvailableBytes
	q, err := freertos.NewQueue[uint64](16)
	require.NoError(t, err)

	stats, ok = freertos.KernelHeapStats()
	require.True(t, ok)
	assert.Less(t, stats.AvailableBytes, before, "queue creation consumes heap")
	assert.NotZero(t, stats.SuccessfulAllocations)

	require.NoError(t, q.Delete())

	stats, ok = freertos.KernelHeapStats()
	require.True(t, ok)
	assert.Equal(t, before, stats.AvailableBytes, "queue deletion returns its heap")
	assert.NotZero(t, stats.SuccessfulFrees)
	assert.Less(t, stats.MinimumEverFreeBytes, before,
		"the low-water mark remembers the allocation")
}

func TestKernelHeapStatsWithoutKernel(t *testing.T) {
	freertos.SetKernel(nil)

	stats, ok := freertos.KernelHeapStats()
	assert.False(t, ok)
	assert.Zero(t, stats)
}

func TestKernelHeapStatsUnsupported(t *testing.T) {
	freertos.SetKernel(statlessKernel{})
	t.Cleanup(func() { freertos.SetKernel(nil) })

	stats, ok := freertos.KernelHeapStats()
	assert.False(t, ok)
	assert.Zero(t, stats)
}

func TestKernelHeapStatsAllZeroTreatedAsUnsupported(t *testing.T) {
	freertos.SetKernel(zeroStatsKernel{})
	t.Cleanup(func() { freertos.SetKernel(nil) })

	stats, ok := freertos.KernelHeapStats()
	assert.False(t, ok)
	assert.Zero(t, stats)
}
