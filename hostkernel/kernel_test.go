package hostkernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	freertos "github.com/veecle/freertos-integration"
)

func newKernel(t *testing.T, opts ...Option) *Kernel {
	t.Helper()
	k := New(opts...)
	t.Cleanup(k.Shutdown)
	return k
}

func TestNewDefaults(t *testing.T) {
	k := newKernel(t)
	assert.Equal(t, uint32(1000), k.TickRateHz())
	assert.Equal(t, time.Millisecond, k.tickPeriod)
	assert.Equal(t, 16, cap(k.timerCommands))
	assert.Equal(t, uint64(1<<20), k.heap.total)
}

func TestNewOptionValidation(t *testing.T) {
	assert.Panics(t, func() { New(WithTickRate(0)) })
	assert.Panics(t, func() { New(WithTimerCommandQueueSize(0)) })
	assert.Panics(t, func() { New(WithTimerCommandQueueSize(-1)) })
}

func TestShutdownIdempotent(t *testing.T) {
	k := New()
	k.Shutdown()
	k.Shutdown()
}

func TestHandleUniqueAcrossKinds(t *testing.T) {
	k := newKernel(t)

	qh, err := k.QueueCreate(1, 4)
	require.NoError(t, err)
	th, err := k.TimerCreate(`t`, 10, false, func(freertos.TimerHandle) {})
	require.NoError(t, err)

	assert.NotEqual(t, uint64(qh), uint64(th))
}

func TestUnknownHandles(t *testing.T) {
	k := newKernel(t)

	const bogusQueue freertos.QueueHandle = 9999
	assert.ErrorIs(t, k.QueueSend(bogusQueue, 1, 0), freertos.ErrInvalidArgument)
	_, err := k.QueueReceive(bogusQueue, 0)
	assert.ErrorIs(t, err, freertos.ErrInvalidArgument)
	assert.ErrorIs(t, k.QueueDelete(bogusQueue), freertos.ErrInvalidArgument)
	assert.Zero(t, k.QueueMessagesWaiting(bogusQueue))
	assert.Zero(t, k.QueueSpacesAvailable(bogusQueue))

	const bogusTask freertos.TaskHandle = 9999
	assert.ErrorIs(t, k.TaskNotify(bogusTask, 0, freertos.NotifyIncrement), freertos.ErrInvalidArgument)
	_, err = k.TaskNotifyWait(bogusTask, 0, 0, 0)
	assert.ErrorIs(t, err, freertos.ErrInvalidArgument)

	const bogusTimer freertos.TimerHandle = 9999
	assert.ErrorIs(t, k.TimerCommand(bogusTimer, freertos.TimerCommandStart, 0, 0), freertos.ErrInvalidArgument)
	assert.False(t, k.TimerIsActive(bogusTimer))
	assert.Zero(t, k.TimerPeriod(bogusTimer))
}

func TestQueueWaiterCounters(t *testing.T) {
	k := newKernel(t)

	handle, err := k.QueueCreate(1, 8)
	require.NoError(t, err)
	q, err := k.queue(handle)
	require.NoError(t, err)

	received := make(chan any, 1)
	go func() {
		item, err := k.QueueReceive(handle, freertos.MaxDelay)
		if err == nil {
			received <- item
		}
	}()

	require.Eventually(t, func() bool {
		return q.waitingReceivers.Load() == 1
	}, time.Second, time.Millisecond, "receiver must register as waiting")

	woken, err := k.QueueSendFromISR(handle, `item`)
	require.NoError(t, err)
	assert.True(t, woken)
	assert.Equal(t, `item`, <-received)

	require.Eventually(t, func() bool {
		return q.waitingReceivers.Load() == 0
	}, time.Second, time.Millisecond, "receiver must deregister after waking")

	// Nobody waiting: a successful send reports no wake.
	woken, err = k.QueueSendFromISR(handle, `lonely`)
	require.NoError(t, err)
	assert.False(t, woken)
}

func TestQueueSenderUnblockedByReceive(t *testing.T) {
	k := newKernel(t)

	handle, err := k.QueueCreate(1, 8)
	require.NoError(t, err)
	require.NoError(t, k.QueueSend(handle, 1, 0))

	q, err := k.queue(handle)
	require.NoError(t, err)

	sent := make(chan error, 1)
	go func() { sent <- k.QueueSend(handle, 2, freertos.MaxDelay) }()

	require.Eventually(t, func() bool {
		return q.waitingSenders.Load() == 1
	}, time.Second, time.Millisecond)

	item, err := k.QueueReceive(handle, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, item)
	require.NoError(t, <-sent)
}

func TestWaitDeadlineSentinels(t *testing.T) {
	k := newKernel(t)

	deadline, stop := k.waitDeadline(0)
	assert.Nil(t, deadline)
	stop()

	deadline, stop = k.waitDeadline(freertos.MaxDelay)
	assert.Nil(t, deadline)
	stop()

	deadline, stop = k.waitDeadline(1)
	require.NotNil(t, deadline)
	select {
	case <-deadline:
	case <-time.After(time.Second):
		t.Fatal("one-tick deadline never fired")
	}
	stop()
}

func TestHeapAccount(t *testing.T) {
	var h heapAccount
	h.init(100)

	require.NoError(t, h.alloc(60))
	assert.ErrorIs(t, h.alloc(41), freertos.ErrOutOfMemory)
	require.NoError(t, h.alloc(40))

	stats := h.stats()
	assert.Equal(t, uint64(0), stats.AvailableBytes)
	assert.Equal(t, uint64(0), stats.MinimumEverFreeBytes)
	assert.Equal(t, uint64(2), stats.SuccessfulAllocations)
	assert.Zero(t, stats.FreeBlocks, "an exhausted heap has no free block")

	h.release(60)
	h.release(40)
	stats = h.stats()
	assert.Equal(t, uint64(100), stats.AvailableBytes)
	assert.Equal(t, uint64(100), stats.LargestFreeBlockBytes)
	assert.Equal(t, uint64(100), stats.SmallestFreeBlockBytes)
	assert.Equal(t, uint64(1), stats.FreeBlocks)
	assert.Equal(t, uint64(0), stats.MinimumEverFreeBytes, "the low-water mark is sticky")
	assert.Equal(t, uint64(2), stats.SuccessfulFrees)
}

func TestHeapAccountReleaseClamps(t *testing.T) {
	var h heapAccount
	h.init(10)

	h.release(1000)
	assert.Equal(t, uint64(10), h.stats().AvailableBytes)
}

func TestHeapChargesPerObject(t *testing.T) {
	k := newKernel(t, WithHeapBytes(4096))
	before := k.HeapStats().AvailableBytes

	handle, err := k.QueueCreate(4, 8)
	require.NoError(t, err)
	assert.Equal(t, before-(4*8+queueControlBytes), k.HeapStats().AvailableBytes)

	require.NoError(t, k.QueueDelete(handle))
	assert.Equal(t, before, k.HeapStats().AvailableBytes)

	th, err := k.TimerCreate(`t`, 10, false, func(freertos.TimerHandle) {})
	require.NoError(t, err)
	assert.Equal(t, before-timerControlBytes, k.HeapStats().AvailableBytes)
	require.NoError(t, k.TimerCommand(th, freertos.TimerCommandDelete, 0, freertos.MaxDelay))
}

func TestTaskStackReleasedOnReturn(t *testing.T) {
	k := newKernel(t)
	before := k.HeapStats().AvailableBytes

	done := make(chan struct{})
	handle, err := k.TaskSpawn(`short`, 1, func(freertos.TaskHandle) { close(done) })
	require.NoError(t, err)
	<-done

	require.Eventually(t, func() bool {
		return k.HeapStats().AvailableBytes == before
	}, time.Second, time.Millisecond, "a returning task body releases its stack")

	require.Eventually(t, func() bool {
		_, err := k.task(handle)
		return err != nil
	}, time.Second, time.Millisecond, "a returned task is unregistered")
}

func TestTickCountMonotonic(t *testing.T) {
	k := newKernel(t, WithTickRate(100))

	before := k.TickCount()
	time.Sleep(50 * time.Millisecond)
	after := k.TickCount()

	assert.GreaterOrEqual(t, after-before, freertos.TickCount(3))
	assert.LessOrEqual(t, after-before, freertos.TickCount(50))
}

func TestTimerDeleteReleasesAndUnregisters(t *testing.T) {
	k := newKernel(t)

	handle, err := k.TimerCreate(`gone`, 10, true, func(freertos.TimerHandle) {})
	require.NoError(t, err)
	require.NoError(t, k.TimerCommand(handle, freertos.TimerCommandDelete, 0, freertos.MaxDelay))

	require.Eventually(t, func() bool {
		_, err := k.timer(handle)
		return err != nil
	}, time.Second, time.Millisecond, "the service task processes the delete")
}

func TestTimerAutoReloadKeepsDeadlineCadence(t *testing.T) {
	k := newKernel(t)

	fires := make(chan time.Time, 16)
	handle, err := k.TimerCreate(`cadence`, 20, true, func(freertos.TimerHandle) {
		fires <- time.Now()
	})
	require.NoError(t, err)
	require.NoError(t, k.TimerCommand(handle, freertos.TimerCommandStart, 0, freertos.MaxDelay))

	var stamps []time.Time
	for len(stamps) < 5 {
		select {
		case at := <-fires:
			stamps = append(stamps, at)
		case <-time.After(time.Second):
			t.Fatal("auto-reload timer stopped firing")
		}
	}
	require.NoError(t, k.TimerCommand(handle, freertos.TimerCommandStop, 0, freertos.MaxDelay))

	// Deadlines advance from the previous deadline, so the average period
	// holds the configured cadence even when individual callbacks run late.
	span := stamps[len(stamps)-1].Sub(stamps[0])
	average := span / time.Duration(len(stamps)-1)
	assert.GreaterOrEqual(t, average, 15*time.Millisecond)
	assert.LessOrEqual(t, average, 60*time.Millisecond)
}
