package hostkernel

import (
	"time"

	freertos "github.com/veecle/freertos-integration"
	"golang.org/x/exp/slices"
)

// hostTimer state is owned by k.mu; the timer service task applies commands
// and fires callbacks.
type hostTimer struct {
	handle     freertos.TimerHandle
	name       string
	callback   func(freertos.TimerHandle)
	period     freertos.TickCount
	autoReload bool
	running    bool
	deadline   time.Time
}

type timerCommand struct {
	timer   freertos.TimerHandle
	command freertos.TimerCommand
	period  freertos.TickCount
}

// TimerCreate implements freertos.Kernel. Timers are created dormant.
func (k *Kernel) TimerCreate(name string, period freertos.TickCount, autoReload bool, callback func(freertos.TimerHandle)) (freertos.TimerHandle, error) {
	if period == 0 || callback == nil {
		return 0, freertos.ErrInvalidArgument
	}
	if err := k.heap.alloc(timerControlBytes); err != nil {
		return 0, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	handle := freertos.TimerHandle(k.handle())
	k.timers[handle] = &hostTimer{
		handle:     handle,
		name:       name,
		callback:   callback,
		period:     period,
		autoReload: autoReload,
	}
	return handle, nil
}

// TimerCommand implements freertos.Kernel: it posts to the timer command
// queue, blocking up to wait ticks for space. Posting succeeds once the
// command is queued; the timer service task applies it asynchronously.
func (k *Kernel) TimerCommand(timer freertos.TimerHandle, command freertos.TimerCommand, period freertos.TickCount, wait freertos.TickCount) error {
	if _, err := k.timer(timer); err != nil {
		return err
	}
	cmd := timerCommand{timer: timer, command: command, period: period}

	select {
	case k.timerCommands <- cmd:
		return nil
	default:
	}
	if wait == 0 {
		return freertos.ErrCommandQueueFull
	}

	if wait == freertos.MaxDelay {
		k.timerCommands <- cmd
		return nil
	}

	expiry := time.NewTimer(k.duration(wait))
	defer expiry.Stop()
	select {
	case k.timerCommands <- cmd:
		return nil
	case <-expiry.C:
		return freertos.ErrCommandQueueFull
	}
}

// TimerCommandFromISR implements freertos.Kernel. It never blocks; woken
// reports whether the post is expected to wake the timer service task.
func (k *Kernel) TimerCommandFromISR(timer freertos.TimerHandle, command freertos.TimerCommand, period freertos.TickCount) (woken bool, err error) {
	if _, err := k.timer(timer); err != nil {
		return false, err
	}

	woken = len(k.timerCommands) == 0
	select {
	case k.timerCommands <- timerCommand{timer: timer, command: command, period: period}:
		return woken, nil
	default:
		return false, freertos.ErrCommandQueueFull
	}
}

// TimerIsActive implements freertos.Kernel.
func (k *Kernel) TimerIsActive(timer freertos.TimerHandle) bool {
	t, err := k.timer(timer)
	if err != nil {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return t.running
}

// TimerPeriod implements freertos.Kernel.
func (k *Kernel) TimerPeriod(timer freertos.TimerHandle) freertos.TickCount {
	t, err := k.timer(timer)
	if err != nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return t.period
}

func (k *Kernel) timer(handle freertos.TimerHandle) (*hostTimer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, ok := k.timers[handle]
	if !ok {
		return nil, freertos.ErrInvalidArgument
	}
	return t, nil
}

// timerService is the kernel's timer service task: a single goroutine that
// owns command application and callback execution. Callbacks run here, so
// they must not block; a callback that posts further timer commands must use
// a zero block time, as a full command queue cannot drain while the service
// task is inside the callback.
func (k *Kernel) timerService() {
	for {
		var expiryCh <-chan time.Time
		var expiry *time.Timer
		if deadline, ok := k.nextTimerDeadline(); ok {
			expiry = time.NewTimer(time.Until(deadline))
			expiryCh = expiry.C
		}

		select {
		case <-k.done:
			if expiry != nil {
				expiry.Stop()
			}
			return
		case cmd := <-k.timerCommands:
			k.applyTimerCommand(cmd)
		case <-expiryCh:
			k.fireDueTimers()
		}

		if expiry != nil {
			expiry.Stop()
		}
	}
}

func (k *Kernel) nextTimerDeadline() (time.Time, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	var next time.Time
	var ok bool
	for _, t := range k.timers {
		if t.running && (!ok || t.deadline.Before(next)) {
			next = t.deadline
			ok = true
		}
	}
	return next, ok
}

func (k *Kernel) applyTimerCommand(cmd timerCommand) {
	k.mu.Lock()
	defer k.mu.Unlock()

	t, ok := k.timers[cmd.timer]
	if !ok {
		// Deleted between posting and processing; commands on dead timers
		// are dropped.
		return
	}

	switch cmd.command {
	case freertos.TimerCommandStart, freertos.TimerCommandReset:
		t.running = true
		t.deadline = time.Now().Add(k.duration(t.period))
	case freertos.TimerCommandStop:
		t.running = false
	case freertos.TimerCommandChangePeriod:
		if cmd.period == 0 {
			return
		}
		t.period = cmd.period
		t.running = true
		t.deadline = time.Now().Add(k.duration(t.period))
	case freertos.TimerCommandDelete:
		delete(k.timers, cmd.timer)
		k.heap.release(timerControlBytes)
	}
}

func (k *Kernel) fireDueTimers() {
	now := time.Now()

	k.mu.Lock()
	var due []*hostTimer
	for _, t := range k.timers {
		if t.running && !t.deadline.After(now) {
			due = append(due, t)
		}
	}
	// Earliest deadline fires first, for deterministic ordering when several
	// timers expire within one wakeup.
	slices.SortFunc(due, func(a, b *hostTimer) int {
		return a.deadline.Compare(b.deadline)
	})
	for _, t := range due {
		if t.autoReload {
			// Advance from the previous deadline, not from now, so the
			// period does not drift by callback latency.
			t.deadline = t.deadline.Add(k.duration(t.period))
		} else {
			t.running = false
		}
	}
	k.mu.Unlock()

	// Callbacks run outside the lock; they may create or command timers.
	for _, t := range due {
		t.callback(t.handle)
	}
}
