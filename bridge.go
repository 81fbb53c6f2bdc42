package freertos

import "errors"

// bridgePollMS bounds how long a bridge pump task stays blocked in a single
// kernel call. Any non-zero wait gives the same observable behavior, since
// the pump retries until the operation succeeds; the bound exists so a pump
// notices queue deletion and exits instead of blocking indefinitely.
const bridgePollMS = 100

// NewQueueToChannelBridge spawns a pump task that receives items from queue
// and delivers them, in order, on the returned channel, making the kernel
// queue selectable from ordinary Go code. capacity bounds the number of
// undelivered items buffered on the Go side, in addition to the queue's own
// capacity; the pump blocks, exerting backpressure on queue senders, when
// the channel is full.
//
// The bridge lives until the queue is deleted: the pump then exits and
// closes the returned channel, after delivering items already received.
// The queue remains owned by the caller; the bridge never deletes it.
func NewQueueToChannelBridge[T any](name string, priority uint, queue *Queue[T], capacity uint) (<-chan T, error) {
	if queue == nil {
		panic(`freertos: nil bridge queue`)
	}

	out := make(chan T, capacity)
	task, err := SpawnTask(name, priority, func(*Task) {
		defer close(out)
		for {
			item, err := queue.Receive(DurationFromMS(bridgePollMS))
			if errors.Is(err, ErrQueueEmpty) {
				continue
			}
			if err != nil {
				// Deleted queue, or a kernel torn down underneath us.
				return
			}
			out <- item
		}
	})
	if err != nil {
		return nil, err
	}

	logger().Debug().
		Str(`object`, `bridge`).
		Uint64(`task`, uint64(task.Handle())).
		Uint64(`queue`, uint64(queue.Handle())).
		Str(`name`, name).
		Str(`direction`, `queue_to_channel`).
		Log(`created`)

	return out, nil
}

// NewChannelToQueueBridge spawns a pump task that forwards items from the
// returned channel onto queue, so ordinary Go code can feed a kernel queue
// through a channel send. capacity bounds the number of unforwarded items
// buffered on the Go side; once the channel and queue are both full, further
// channel sends block.
//
// Closing the returned channel stops the pump after the remaining buffered
// items are forwarded. If the queue is deleted while items remain, they are
// dropped and the pump exits. The queue remains owned by the caller; the
// bridge never deletes it.
func NewChannelToQueueBridge[T any](name string, priority uint, queue *Queue[T], capacity uint) (chan<- T, error) {
	if queue == nil {
		panic(`freertos: nil bridge queue`)
	}

	in := make(chan T, capacity)
	task, err := SpawnTask(name, priority, func(*Task) {
		for item := range in {
			for {
				err := queue.Send(item, DurationFromMS(bridgePollMS))
				if err == nil {
					break
				}
				if !errors.Is(err, ErrQueueFull) {
					return
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}

	logger().Debug().
		Str(`object`, `bridge`).
		Uint64(`task`, uint64(task.Handle())).
		Uint64(`queue`, uint64(queue.Handle())).
		Str(`name`, name).
		Str(`direction`, `channel_to_queue`).
		Log(`created`)

	return in, nil
}
