package hostkernel

import (
	"sync"
	"time"

	freertos "github.com/veecle/freertos-integration"
)

// hostTask is a goroutine-backed task with its notification slot: a single
// 32-bit value plus a pending flag, guarded by the slot mutex. The waiter
// channel is non-nil only while the task is blocked in a wait or take, and
// carries at most one wake signal.
type hostTask struct {
	name     string
	priority uint

	mu      sync.Mutex
	value   uint32
	pending bool
	waiter  chan struct{}
}

// TaskSpawn implements freertos.Kernel. The task body runs on its own
// goroutine; if it returns, the task is retired and its stack charge
// released.
func (k *Kernel) TaskSpawn(name string, priority uint, fn func(freertos.TaskHandle)) (freertos.TaskHandle, error) {
	if fn == nil {
		return 0, freertos.ErrInvalidArgument
	}
	if err := k.heap.alloc(taskStackBytes); err != nil {
		return 0, err
	}

	k.mu.Lock()
	handle := freertos.TaskHandle(k.handle())
	k.tasks[handle] = &hostTask{name: name, priority: priority}
	k.mu.Unlock()

	go func() {
		defer func() {
			k.mu.Lock()
			delete(k.tasks, handle)
			k.mu.Unlock()
			k.heap.release(taskStackBytes)
		}()
		fn(handle)
	}()

	return handle, nil
}

// TaskNotify implements freertos.Kernel.
func (k *Kernel) TaskNotify(task freertos.TaskHandle, value uint32, action freertos.NotificationAction) error {
	t, err := k.task(task)
	if err != nil {
		return err
	}
	_, err = t.notify(value, action)
	return err
}

// TaskNotifyFromISR implements freertos.Kernel. It never blocks; woken
// reports whether the target task was blocked waiting for a notification.
func (k *Kernel) TaskNotifyFromISR(task freertos.TaskHandle, value uint32, action freertos.NotificationAction) (woken bool, err error) {
	t, err := k.task(task)
	if err != nil {
		return false, err
	}
	return t.notify(value, action)
}

// TaskNotifyWait implements freertos.Kernel.
func (k *Kernel) TaskNotifyWait(task freertos.TaskHandle, clearOnEntry, clearOnExit uint32, wait freertos.TickCount) (uint32, error) {
	t, err := k.task(task)
	if err != nil {
		return 0, err
	}

	deadline, stop := k.waitDeadline(wait)
	defer stop()

	t.mu.Lock()
	if !t.pending {
		t.value &^= clearOnEntry
	}
	for !t.pending {
		if wait == 0 {
			t.mu.Unlock()
			return 0, freertos.ErrTimeout
		}
		if timedOut := t.block(deadline); timedOut && !t.pending {
			t.waiter = nil
			t.mu.Unlock()
			return 0, freertos.ErrTimeout
		}
	}

	value := t.value
	t.value &^= clearOnExit
	t.pending = false
	t.waiter = nil
	t.mu.Unlock()
	return value, nil
}

// TaskNotifyTake implements freertos.Kernel.
func (k *Kernel) TaskNotifyTake(task freertos.TaskHandle, clearOnExit bool, wait freertos.TickCount) (uint32, error) {
	t, err := k.task(task)
	if err != nil {
		return 0, err
	}

	deadline, stop := k.waitDeadline(wait)
	defer stop()

	t.mu.Lock()
	for t.value == 0 {
		if wait == 0 {
			t.mu.Unlock()
			return 0, freertos.ErrTimeout
		}
		if timedOut := t.block(deadline); timedOut && t.value == 0 {
			t.waiter = nil
			t.mu.Unlock()
			return 0, freertos.ErrTimeout
		}
	}

	value := t.value
	if clearOnExit {
		t.value = 0
	} else {
		t.value--
	}
	t.pending = false
	t.waiter = nil
	t.mu.Unlock()
	return value, nil
}

// notify applies the action and wakes the task if it is blocked. woken
// reports whether a waiter was present.
func (t *hostTask) notify(value uint32, action freertos.NotificationAction) (woken bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch action {
	case freertos.NotifyNoAction:
	case freertos.NotifySetBits:
		t.value |= value
	case freertos.NotifyIncrement:
		t.value++
	case freertos.NotifyOverwrite:
		t.value = value
	case freertos.NotifySetValue:
		if t.pending {
			return false, freertos.ErrNotificationPending
		}
		t.value = value
	default:
		return false, freertos.ErrInvalidArgument
	}

	t.pending = true

	if t.waiter != nil {
		select {
		case t.waiter <- struct{}{}:
		default: // wake already queued
		}
		return true, nil
	}
	return false, nil
}

// block releases the slot mutex, waits for a wake signal or the deadline,
// and reacquires the mutex. It reports whether the deadline fired; the
// caller must re-check the slot state either way, as a wake and a timeout
// can race.
func (t *hostTask) block(deadline <-chan time.Time) (timedOut bool) {
	if t.waiter == nil {
		t.waiter = make(chan struct{}, 1)
	}
	waiter := t.waiter
	t.mu.Unlock()

	select {
	case <-waiter:
	case <-deadline:
		timedOut = true
	}

	t.mu.Lock()
	return timedOut
}

// waitDeadline returns a channel that fires after the given tick count, with
// a nil channel (never fires) for both the zero and Forever sentinels. The
// zero case is handled by callers before blocking.
func (k *Kernel) waitDeadline(wait freertos.TickCount) (<-chan time.Time, func()) {
	if wait == 0 || wait == freertos.MaxDelay {
		return nil, func() {}
	}
	timer := time.NewTimer(k.duration(wait))
	return timer.C, func() { timer.Stop() }
}

func (k *Kernel) task(handle freertos.TaskHandle) (*hostTask, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, ok := k.tasks[handle]
	if !ok {
		return nil, freertos.ErrInvalidArgument
	}
	return t, nil
}
