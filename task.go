package freertos

// Task is a back-reference to a scheduler-owned task. Unlike queues and
// timers there is no delete operation: tasks belong to the scheduler for the
// life of the program, and a Task value may be freely copied and shared to
// notify the task it refers to.
type Task struct {
	kernel   Kernel
	handle   TaskHandle
	name     string
	priority uint
}

// SpawnTask creates and starts a task running fn. The body receives its own
// *Task, which it may hand out so other tasks (or interrupts) can notify it.
//
// priority follows the kernel's convention: low numbers denote low priority.
// Returns ErrOutOfMemory if the kernel cannot allocate the task. A nil fn
// causes a panic.
//
// The body must not return on kernels that do not support task exit; the
// host kernel tolerates a returning body by retiring the task.
func SpawnTask(name string, priority uint, fn func(*Task)) (*Task, error) {
	if fn == nil {
		panic(`freertos: nil task function`)
	}

	k, err := configuredKernel()
	if err != nil {
		return nil, err
	}

	handle, err := k.TaskSpawn(name, priority, func(h TaskHandle) {
		fn(&Task{kernel: k, handle: h, name: name, priority: priority})
	})
	if err != nil {
		return nil, err
	}

	logger().Debug().
		Str(`object`, `task`).
		Uint64(`handle`, uint64(handle)).
		Str(`name`, name).
		Uint64(`priority`, uint64(priority)).
		Log(`spawned`)

	return &Task{kernel: k, handle: handle, name: name, priority: priority}, nil
}

// Handle returns the raw kernel handle.
func (x *Task) Handle() TaskHandle {
	return x.handle
}

// Name returns the name the task was spawned with.
func (x *Task) Name() string {
	return x.name
}

// Priority returns the priority the task was spawned with.
func (x *Task) Priority() uint {
	return x.priority
}

// Notify applies a notification action to this task's notification slot and
// unblocks it if it is waiting. Notify never blocks. NotifySetValue fails
// with ErrNotificationPending when the task already has a notification
// pending; notifying a task whose body has returned fails with
// ErrInvalidArgument.
func (x *Task) Notify(value uint32, action NotificationAction) error {
	return x.kernel.TaskNotify(x.handle, value, action)
}

// NotifyFromISR is the interrupt-context Notify. If the notification
// unblocks a higher-priority task, the woken flag is recorded on ic for the
// deferred yield at interrupt exit.
func (x *Task) NotifyFromISR(ic *InterruptContext, value uint32, action NotificationAction) error {
	if ic == nil {
		panic(`freertos: nil interrupt context`)
	}
	woken, err := x.kernel.TaskNotifyFromISR(x.handle, value, action)
	ic.noteWoken(woken)
	return err
}

// SetNotificationValue forcibly overwrites this task's notification value.
func (x *Task) SetNotificationValue(value uint32) {
	_ = x.Notify(value, NotifyOverwrite)
}

// Wait blocks until a notification is pending or maxWait elapses, returning
// the notification value and ErrTimeout on expiry.
//
// The clear masks are applied atomically around the wait: bits in
// clearOnEntry are cleared before blocking (only when no notification is
// already pending), and bits in clearOnExit are cleared after the returned
// value is captured.
//
// Wait must be called from the task's own goroutine.
func (x *Task) Wait(clearOnEntry, clearOnExit uint32, maxWait Duration) (uint32, error) {
	return x.kernel.TaskNotifyWait(x.handle, clearOnEntry, clearOnExit, maxWait.Ticks())
}

// Take consumes the notification value as a counting semaphore: it blocks
// until the value is non-zero or maxWait elapses, then either clears the
// value (clearOnExit true, binary-semaphore style) or decrements it by one.
// The value before consumption is returned; on timeout it returns 0 and
// ErrTimeout.
//
// Take must be called from the task's own goroutine.
func (x *Task) Take(clearOnExit bool, maxWait Duration) (uint32, error) {
	return x.kernel.TaskNotifyTake(x.handle, clearOnExit, maxWait.Ticks())
}
