package hostkernel

import (
	"sync/atomic"
	"time"

	freertos "github.com/veecle/freertos-integration"
)

// hostQueue carries items through a buffered channel, which provides the
// FIFO order and the sender/receiver blocking. The waiter counters exist
// only to answer the "did this unblock someone" question the FromISR
// variants must report.
type hostQueue struct {
	items            chan any
	waitingSenders   atomic.Int32
	waitingReceivers atomic.Int32
	heapBytes        uint64
}

// QueueCreate implements freertos.Kernel.
func (k *Kernel) QueueCreate(capacity, itemSize uint) (freertos.QueueHandle, error) {
	if capacity == 0 {
		return 0, freertos.ErrInvalidArgument
	}

	heapBytes := uint64(capacity)*uint64(itemSize) + queueControlBytes
	if err := k.heap.alloc(heapBytes); err != nil {
		return 0, err
	}

	q := &hostQueue{
		items:     make(chan any, capacity),
		heapBytes: heapBytes,
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	handle := freertos.QueueHandle(k.handle())
	k.queues[handle] = q
	return handle, nil
}

// QueueSend implements freertos.Kernel.
func (k *Kernel) QueueSend(queue freertos.QueueHandle, item any, wait freertos.TickCount) error {
	q, err := k.queue(queue)
	if err != nil {
		return err
	}

	select {
	case q.items <- item:
		return nil
	default:
	}
	if wait == 0 {
		return freertos.ErrQueueFull
	}

	q.waitingSenders.Add(1)
	defer q.waitingSenders.Add(-1)

	if wait == freertos.MaxDelay {
		q.items <- item
		return nil
	}

	timer := time.NewTimer(k.duration(wait))
	defer timer.Stop()
	select {
	case q.items <- item:
		return nil
	case <-timer.C:
		return freertos.ErrQueueFull
	}
}

// QueueSendFromISR implements freertos.Kernel. It never blocks; woken
// reports whether a receiver was blocked on the queue at the time of the
// send.
func (k *Kernel) QueueSendFromISR(queue freertos.QueueHandle, item any) (woken bool, err error) {
	q, err := k.queue(queue)
	if err != nil {
		return false, err
	}

	woken = q.waitingReceivers.Load() > 0
	select {
	case q.items <- item:
		return woken, nil
	default:
		return false, freertos.ErrQueueFull
	}
}

// QueueReceive implements freertos.Kernel.
func (k *Kernel) QueueReceive(queue freertos.QueueHandle, wait freertos.TickCount) (any, error) {
	q, err := k.queue(queue)
	if err != nil {
		return nil, err
	}

	select {
	case item := <-q.items:
		return item, nil
	default:
	}
	if wait == 0 {
		return nil, freertos.ErrQueueEmpty
	}

	q.waitingReceivers.Add(1)
	defer q.waitingReceivers.Add(-1)

	if wait == freertos.MaxDelay {
		return <-q.items, nil
	}

	timer := time.NewTimer(k.duration(wait))
	defer timer.Stop()
	select {
	case item := <-q.items:
		return item, nil
	case <-timer.C:
		return nil, freertos.ErrQueueEmpty
	}
}

// QueueMessagesWaiting implements freertos.Kernel.
func (k *Kernel) QueueMessagesWaiting(queue freertos.QueueHandle) uint {
	q, err := k.queue(queue)
	if err != nil {
		return 0
	}
	return uint(len(q.items))
}

// QueueSpacesAvailable implements freertos.Kernel.
func (k *Kernel) QueueSpacesAvailable(queue freertos.QueueHandle) uint {
	q, err := k.queue(queue)
	if err != nil {
		return 0
	}
	return uint(cap(q.items) - len(q.items))
}

// QueueDelete implements freertos.Kernel.
func (k *Kernel) QueueDelete(queue freertos.QueueHandle) error {
	k.mu.Lock()
	q, ok := k.queues[queue]
	if ok {
		delete(k.queues, queue)
	}
	k.mu.Unlock()

	if !ok {
		return freertos.ErrInvalidArgument
	}
	k.heap.release(q.heapBytes)
	return nil
}

func (k *Kernel) queue(handle freertos.QueueHandle) (*hostQueue, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	q, ok := k.queues[handle]
	if !ok {
		return nil, freertos.ErrInvalidArgument
	}
	return q, nil
}
