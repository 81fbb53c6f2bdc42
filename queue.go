package freertos

import (
	"sync/atomic"
	"unsafe"
)

// Queue is a bounded FIFO queue of items of type T, backed by a kernel queue.
// Items are copied by value when sending and receiving.
//
// A Queue exclusively owns its kernel object: Delete consumes it, and any
// later operation (including a second Delete) returns ErrInvalidArgument.
// Instances must be created using NewQueue, and are safe for concurrent use.
type Queue[T any] struct {
	_       [0]func() // prevent accidental copying.
	kernel  Kernel
	handle  QueueHandle
	deleted atomic.Bool
}

// NewQueue creates a kernel queue holding up to capacity items of type T,
// returning ErrOutOfMemory if the kernel allocator cannot satisfy the
// request, and ErrInvalidArgument for a zero capacity.
func NewQueue[T any](capacity uint) (*Queue[T], error) {
	k, err := configuredKernel()
	if err != nil {
		return nil, err
	}
	if capacity == 0 {
		return nil, ErrInvalidArgument
	}

	var zero T
	itemSize := uint(unsafe.Sizeof(zero))

	handle, err := k.QueueCreate(capacity, itemSize)
	if err != nil {
		return nil, err
	}

	logger().Debug().
		Str(`object`, `queue`).
		Uint64(`handle`, uint64(handle)).
		Int(`capacity`, int(capacity)).
		Int(`item_size`, int(itemSize)).
		Log(`created`)

	return &Queue[T]{kernel: k, handle: handle}, nil
}

// Handle returns the raw kernel handle. It remains owned by the Queue.
func (x *Queue[T]) Handle() QueueHandle {
	return x.handle
}

// Send copies an item to the back of the queue, blocking the calling task up
// to maxWait for space. Returns ErrQueueFull if the timeout elapses with no
// space available. The send is atomic with respect to other senders.
func (x *Queue[T]) Send(item T, maxWait Duration) error {
	if err := x.guard(); err != nil {
		return err
	}
	return x.kernel.QueueSend(x.handle, item, maxWait.Ticks())
}

// SendFromISR copies an item to the back of the queue without blocking,
// returning ErrQueueFull if there is no space. If the send unblocks a
// higher-priority task, the woken flag is recorded on ic for the deferred
// yield at interrupt exit.
func (x *Queue[T]) SendFromISR(ic *InterruptContext, item T) error {
	if ic == nil {
		panic(`freertos: nil interrupt context`)
	}
	if err := x.guard(); err != nil {
		return err
	}
	woken, err := x.kernel.QueueSendFromISR(x.handle, item)
	ic.noteWoken(woken)
	return err
}

// Receive removes and returns the front item, blocking up to maxWait.
// Returns ErrQueueEmpty if the timeout elapses with no item available.
func (x *Queue[T]) Receive(maxWait Duration) (T, error) {
	var zero T
	if err := x.guard(); err != nil {
		return zero, err
	}

	v, err := x.kernel.QueueReceive(x.handle, maxWait.Ticks())
	if err != nil {
		return zero, err
	}

	item, ok := v.(T)
	if !ok {
		// A foreign item type means the handle was shared with a mismatched
		// queue view; treat as a boundary invariant violation.
		assertFailed(`queue item type mismatch`)
		return zero, ErrInvalidArgument
	}
	return item, nil
}

// MessagesWaiting reports the number of items currently in the queue.
// Reports zero after Delete.
func (x *Queue[T]) MessagesWaiting() uint {
	if x.guard() != nil {
		return 0
	}
	return x.kernel.QueueMessagesWaiting(x.handle)
}

// SpacesAvailable reports the remaining capacity of the queue.
// Reports zero after Delete.
func (x *Queue[T]) SpacesAvailable() uint {
	if x.guard() != nil {
		return 0
	}
	return x.kernel.QueueSpacesAvailable(x.handle)
}

// Delete consumes the queue and releases its kernel resources. Exactly one
// Delete call succeeds; all later use of the queue returns
// ErrInvalidArgument.
func (x *Queue[T]) Delete() error {
	if x == nil || !x.deleted.CompareAndSwap(false, true) {
		assertFailed(`queue deleted twice`)
		return ErrInvalidArgument
	}

	err := x.kernel.QueueDelete(x.handle)

	logger().Debug().
		Str(`object`, `queue`).
		Uint64(`handle`, uint64(x.handle)).
		Log(`deleted`)

	return err
}

func (x *Queue[T]) guard() error {
	if x == nil || x.deleted.Load() {
		assertFailed(`queue used after delete`)
		return ErrInvalidArgument
	}
	return nil
}
