package freertos

import (
	"math"
	"sync"
)

type (
	// TickCount is the kernel's fundamental time unit. Its wall-clock length
	// is set by the kernel's configured tick rate, see TickPeriod.
	TickCount uint32

	// QueueHandle identifies a kernel-owned queue. Handles are produced only
	// by the kernel and are meaningless to anything else.
	QueueHandle uint64

	// TimerHandle identifies a kernel-owned software timer.
	TimerHandle uint64

	// TaskHandle identifies a scheduler-owned task.
	TaskHandle uint64

	// NotificationAction describes how a notification value combines with
	// the target task's existing notification value.
	NotificationAction uint8

	// TimerCommand identifies an operation posted to the kernel's timer
	// command queue.
	TimerCommand uint8
)

// MaxDelay is the sentinel tick count meaning "wait indefinitely".
const MaxDelay TickCount = math.MaxUint32

const (
	// NotifyNoAction marks the notification pending without updating the
	// value.
	NotifyNoAction NotificationAction = iota

	// NotifySetBits bitwise-ORs the sent value into the notification value.
	NotifySetBits

	// NotifyIncrement increments the notification value by one; the sent
	// value is ignored.
	NotifyIncrement

	// NotifyOverwrite unconditionally replaces the notification value.
	NotifyOverwrite

	// NotifySetValue replaces the notification value only if the target has
	// no notification pending, failing with ErrNotificationPending otherwise.
	NotifySetValue
)

const (
	// TimerCommandStart moves a timer to Running and restarts its period.
	TimerCommandStart TimerCommand = iota

	// TimerCommandStop moves a timer to Dormant.
	TimerCommandStop

	// TimerCommandChangePeriod sets a new period and implicitly starts the
	// timer.
	TimerCommandChangePeriod

	// TimerCommandReset restarts the period measurement from now.
	TimerCommandReset

	// TimerCommandDelete releases the timer; terminal from any state.
	TimerCommandDelete
)

// Kernel is the set of primitive operations the binding layer consumes. It is
// the boundary to the real-time kernel: implementations provide the blocking,
// timeout and ISR-context semantics documented per method, using their own
// critical-section discipline (the binding layer adds no locking around these
// calls).
//
// Items flow through queue operations as any-typed values, copied by value at
// the binding layer. Every wait parameter is in ticks, with 0 meaning "do not
// block" and MaxDelay meaning "wait indefinitely".
//
// Methods suffixed FromISR must never block; they report whether a
// higher-priority task was unblocked, for the caller to act on at interrupt
// exit.
type Kernel interface {
	// QueueCreate allocates a queue holding up to capacity items of itemSize
	// bytes, returning ErrOutOfMemory if the allocator is exhausted.
	QueueCreate(capacity, itemSize uint) (QueueHandle, error)
	// QueueSend copies an item to the back of the queue, blocking up to wait
	// ticks for space. Returns ErrQueueFull on timeout.
	QueueSend(queue QueueHandle, item any, wait TickCount) error
	// QueueSendFromISR is the non-blocking interrupt-context send.
	QueueSendFromISR(queue QueueHandle, item any) (woken bool, err error)
	// QueueReceive removes the front item, blocking up to wait ticks.
	// Returns ErrQueueEmpty on timeout.
	QueueReceive(queue QueueHandle, wait TickCount) (any, error)
	// QueueMessagesWaiting reports the number of items in the queue.
	QueueMessagesWaiting(queue QueueHandle) uint
	// QueueSpacesAvailable reports the remaining capacity of the queue.
	QueueSpacesAvailable(queue QueueHandle) uint
	// QueueDelete releases the queue's kernel resources.
	QueueDelete(queue QueueHandle) error

	// TimerCreate allocates a dormant software timer. The callback runs on
	// the kernel's timer service task.
	TimerCreate(name string, period TickCount, autoReload bool, callback func(TimerHandle)) (TimerHandle, error)
	// TimerCommand posts a command to the timer command queue, blocking up
	// to wait ticks for space. Returns ErrCommandQueueFull on timeout.
	// period is used by TimerCommandChangePeriod and ignored otherwise.
	TimerCommand(timer TimerHandle, command TimerCommand, period TickCount, wait TickCount) error
	// TimerCommandFromISR is the non-blocking interrupt-context command post.
	TimerCommandFromISR(timer TimerHandle, command TimerCommand, period TickCount) (woken bool, err error)
	// TimerIsActive reports whether the timer is Running (as opposed to
	// Dormant).
	TimerIsActive(timer TimerHandle) bool
	// TimerPeriod reports the timer's current period.
	TimerPeriod(timer TimerHandle) TickCount

	// TaskSpawn creates and starts a task; fn is the task body, invoked with
	// the task's own handle.
	TaskSpawn(name string, priority uint, fn func(TaskHandle)) (TaskHandle, error)
	// TaskNotify applies a notification action to the task's notification
	// slot, marking the notification pending and unblocking a waiter.
	TaskNotify(task TaskHandle, value uint32, action NotificationAction) error
	// TaskNotifyFromISR is the non-blocking interrupt-context notify.
	TaskNotifyFromISR(task TaskHandle, value uint32, action NotificationAction) (woken bool, err error)
	// TaskNotifyWait blocks until a notification is pending or wait ticks
	// elapse, applying the clear masks on entry and exit of the wait.
	TaskNotifyWait(task TaskHandle, clearOnEntry, clearOnExit uint32, wait TickCount) (uint32, error)
	// TaskNotifyTake blocks until the notification value is non-zero,
	// consuming it as a counting semaphore.
	TaskNotifyTake(task TaskHandle, clearOnExit bool, wait TickCount) (uint32, error)
	// TaskDelay suspends the calling task for the given tick count.
	TaskDelay(ticks TickCount)
	// TaskYield offers the processor to other ready tasks.
	TaskYield()

	// TickRateHz reports the configured tick rate.
	TickRateHz() uint32
	// TickCount reports ticks elapsed since the kernel started.
	TickCount() TickCount
}

// HeapStatsProvider is an optional Kernel capability. Kernels whose heap
// implementation cannot report statistics simply do not implement it; see
// KernelHeapStats.
type HeapStatsProvider interface {
	HeapStats() HeapStats
}

var globalKernel struct {
	sync.RWMutex
	kernel Kernel
}

// SetKernel configures the process-wide kernel all subsequently created
// objects bind to. Objects capture the kernel at creation time, so
// reconfiguring does not affect live queues, timers or tasks.
//
// Passing nil deconfigures the kernel.
func SetKernel(k Kernel) {
	globalKernel.Lock()
	defer globalKernel.Unlock()
	globalKernel.kernel = k
}

// configuredKernel returns the process-wide kernel, or ErrKernelNotConfigured.
func configuredKernel() (Kernel, error) {
	globalKernel.RLock()
	defer globalKernel.RUnlock()
	if globalKernel.kernel == nil {
		assertFailed(`no kernel configured`)
		return nil, ErrKernelNotConfigured
	}
	return globalKernel.kernel, nil
}
