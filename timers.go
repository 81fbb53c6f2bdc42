package freertos

import "sync/atomic"

// Timer is a software timer driven by the kernel's timer service task.
//
// Every operation on a Timer is a command posted to the kernel's internal
// timer command queue; each therefore takes a block timeout and may fail with
// ErrCommandQueueFull if that queue stays full for the whole timeout.
//
// A timer is either Dormant or Running. Start and Reset move it to Running
// and restart the period measurement, Stop moves it to Dormant, ChangePeriod
// installs a new period and implicitly starts the timer, and Delete is
// terminal from either state.
//
// A Timer exclusively owns its kernel object: Delete consumes it, and any
// later operation returns ErrInvalidArgument. Instances must be created
// using NewPeriodicTimer or NewOneShotTimer.
type Timer struct {
	_       [0]func() // prevent accidental copying.
	kernel  Kernel
	handle  TimerHandle
	name    string
	deleted atomic.Bool
}

// NewPeriodicTimer creates a dormant auto-reloading timer: once started, the
// callback fires every period until the timer is stopped or deleted.
//
// The callback runs on the kernel's timer service task and must not block;
// a blocked callback stalls every other timer. A nil callback causes a
// panic; a zero period returns ErrInvalidArgument.
func NewPeriodicTimer(name string, period Duration, callback func(*Timer)) (*Timer, error) {
	return newTimer(name, period, true, callback)
}

// NewOneShotTimer creates a dormant timer whose callback fires once, one
// period after each start. See NewPeriodicTimer for callback constraints.
func NewOneShotTimer(name string, period Duration, callback func(*Timer)) (*Timer, error) {
	return newTimer(name, period, false, callback)
}

func newTimer(name string, period Duration, autoReload bool, callback func(*Timer)) (*Timer, error) {
	if callback == nil {
		panic(`freertos: nil timer callback`)
	}

	k, err := configuredKernel()
	if err != nil {
		return nil, err
	}
	if period.Ticks() == 0 {
		return nil, ErrInvalidArgument
	}

	timer := &Timer{kernel: k, name: name}

	// The timer is created dormant, so the callback cannot fire before the
	// handle is assigned below.
	handle, err := k.TimerCreate(name, period.Ticks(), autoReload, func(TimerHandle) {
		callback(timer)
	})
	if err != nil {
		return nil, err
	}
	timer.handle = handle

	logger().Debug().
		Str(`object`, `timer`).
		Uint64(`handle`, uint64(handle)).
		Str(`name`, name).
		Uint64(`period_ticks`, uint64(period.Ticks())).
		Bool(`auto_reload`, autoReload).
		Log(`created`)

	return timer, nil
}

// Handle returns the raw kernel handle. It remains owned by the Timer.
func (x *Timer) Handle() TimerHandle {
	return x.handle
}

// Name returns the name the timer was created with.
func (x *Timer) Name() string {
	return x.name
}

// Period returns the timer's current period. Reports zero after Delete.
func (x *Timer) Period() Duration {
	if x.guard() != nil {
		return NoWait()
	}
	return DurationFromTicks(x.kernel.TimerPeriod(x.handle))
}

// IsActive reports whether the timer is Running. Reports false after Delete.
func (x *Timer) IsActive() bool {
	if x.guard() != nil {
		return false
	}
	return x.kernel.TimerIsActive(x.handle)
}

// Start moves the timer to Running, restarting the period measurement from
// now. Starting a Running timer resets its period.
func (x *Timer) Start(block Duration) error {
	return x.command(TimerCommandStart, 0, block)
}

// StartFromISR is the interrupt-context Start; it never blocks.
func (x *Timer) StartFromISR(ic *InterruptContext) error {
	return x.commandFromISR(ic, TimerCommandStart, 0)
}

// Stop moves the timer to Dormant. The callback will not fire until the
// timer is started again.
func (x *Timer) Stop(block Duration) error {
	return x.command(TimerCommandStop, 0, block)
}

// StopFromISR is the interrupt-context Stop; it never blocks.
func (x *Timer) StopFromISR(ic *InterruptContext) error {
	return x.commandFromISR(ic, TimerCommandStop, 0)
}

// ChangePeriod installs a new period and implicitly starts the timer, even
// if it was Dormant. A zero period returns ErrInvalidArgument.
func (x *Timer) ChangePeriod(period Duration, block Duration) error {
	if period.Ticks() == 0 {
		return ErrInvalidArgument
	}
	return x.command(TimerCommandChangePeriod, period.Ticks(), block)
}

// ChangePeriodFromISR is the interrupt-context ChangePeriod; it never blocks.
func (x *Timer) ChangePeriodFromISR(ic *InterruptContext, period Duration) error {
	if period.Ticks() == 0 {
		return ErrInvalidArgument
	}
	return x.commandFromISR(ic, TimerCommandChangePeriod, period.Ticks())
}

// Reset restarts the period measurement from now, starting the timer if it
// was Dormant.
func (x *Timer) Reset(block Duration) error {
	return x.command(TimerCommandReset, 0, block)
}

// Delete consumes the timer and releases its kernel resources, blocking up
// to block for space on the command queue. Exactly one Delete call succeeds;
// all later use of the timer returns ErrInvalidArgument.
func (x *Timer) Delete(block Duration) error {
	if x == nil || !x.deleted.CompareAndSwap(false, true) {
		assertFailed(`timer deleted twice`)
		return ErrInvalidArgument
	}

	err := x.kernel.TimerCommand(x.handle, TimerCommandDelete, 0, block.Ticks())
	if err != nil {
		logger().Warning().
			Str(`object`, `timer`).
			Uint64(`handle`, uint64(x.handle)).
			Err(err).
			Log(`delete command failed`)
		return err
	}

	logger().Debug().
		Str(`object`, `timer`).
		Uint64(`handle`, uint64(x.handle)).
		Str(`name`, x.name).
		Log(`deleted`)

	return nil
}

func (x *Timer) command(command TimerCommand, period TickCount, block Duration) error {
	if err := x.guard(); err != nil {
		return err
	}
	return x.kernel.TimerCommand(x.handle, command, period, block.Ticks())
}

func (x *Timer) commandFromISR(ic *InterruptContext, command TimerCommand, period TickCount) error {
	if ic == nil {
		panic(`freertos: nil interrupt context`)
	}
	if err := x.guard(); err != nil {
		return err
	}
	woken, err := x.kernel.TimerCommandFromISR(x.handle, command, period)
	ic.noteWoken(woken)
	return err
}

func (x *Timer) guard() error {
	if x == nil || x.deleted.Load() {
		assertFailed(`timer used after delete`)
		return ErrInvalidArgument
	}
	return nil
}
