// Package hostkernel is an in-process port of the kernel primitive surface
// consumed by the freertos binding layer, backed by goroutines, channels and
// timers. It provides the primitive semantics (blocking with tick-granular
// timeouts, a timer service task with a bounded command queue, per-task
// notification slots, a simulated heap budget) without reimplementing a
// preemptive scheduler: execution order is the Go runtime's.
//
// It is intended for tests and host builds of code written against the
// binding layer.
package hostkernel

import (
	"runtime"
	"sync"
	"time"

	freertos "github.com/veecle/freertos-integration"
)

const (
	// Nominal per-object heap charges, approximating a small embedded
	// kernel's control structures.
	queueControlBytes = 80
	timerControlBytes = 48
	taskStackBytes    = 1024
)

type (
	// Option models a configuration option for New.
	Option func(c *config)

	config struct {
		tickRateHz      uint32
		heapBytes       uint64
		timerCommandCap int
	}
)

// WithTickRate sets the tick rate. Defaults to 1000 (a 1ms tick).
func WithTickRate(hz uint32) Option {
	return func(c *config) {
		c.tickRateHz = hz
	}
}

// WithHeapBytes sets the simulated allocator budget that queue, timer and
// task creation draw on. Defaults to 1MiB. The per-object thresholds are a
// property of the kernel configuration, not of the binding layer.
func WithHeapBytes(n uint64) Option {
	return func(c *config) {
		c.heapBytes = n
	}
}

// WithTimerCommandQueueSize bounds the timer command queue. Defaults to 16.
func WithTimerCommandQueueSize(n int) Option {
	return func(c *config) {
		c.timerCommandCap = n
	}
}

// Kernel implements freertos.Kernel (and freertos.HeapStatsProvider) in
// process. Instances must be created using New, and are safe for concurrent
// use.
type Kernel struct {
	_ [0]func() // prevent accidental copying.

	tickRateHz uint32
	tickPeriod time.Duration
	epoch      time.Time
	heap       heapAccount

	mu         sync.Mutex
	queues     map[freertos.QueueHandle]*hostQueue
	timers     map[freertos.TimerHandle]*hostTimer
	tasks      map[freertos.TaskHandle]*hostTask
	lastHandle uint64

	timerCommands chan timerCommand
	done          chan struct{}
	closeOnce     sync.Once
}

var (
	_ freertos.Kernel            = (*Kernel)(nil)
	_ freertos.HeapStatsProvider = (*Kernel)(nil)
)

// New creates a started kernel: the tick counter runs and the timer service
// task is accepting commands. Shutdown should be called when the kernel is
// no longer needed.
func New(opts ...Option) *Kernel {
	cfg := config{
		tickRateHz:      1000,
		heapBytes:       1 << 20,
		timerCommandCap: 16,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.tickRateHz == 0 {
		panic(`hostkernel: zero tick rate`)
	}
	if cfg.timerCommandCap <= 0 {
		panic(`hostkernel: timer command queue size must be positive`)
	}

	k := &Kernel{
		tickRateHz:    cfg.tickRateHz,
		tickPeriod:    time.Second / time.Duration(cfg.tickRateHz),
		epoch:         time.Now(),
		queues:        make(map[freertos.QueueHandle]*hostQueue),
		timers:        make(map[freertos.TimerHandle]*hostTimer),
		tasks:         make(map[freertos.TaskHandle]*hostTask),
		timerCommands: make(chan timerCommand, cfg.timerCommandCap),
		done:          make(chan struct{}),
	}
	k.heap.init(cfg.heapBytes)

	go k.timerService()

	return k
}

// Shutdown stops the timer service task. Operations blocked at the time of
// the call, and operations made after it, have undefined behavior, as with
// any teardown of a live kernel; callers are responsible for deterministic
// teardown of their own tasks first.
func (k *Kernel) Shutdown() {
	k.closeOnce.Do(func() {
		close(k.done)
	})
}

// TickRateHz reports the configured tick rate.
func (k *Kernel) TickRateHz() uint32 {
	return k.tickRateHz
}

// TickCount reports ticks elapsed since New.
func (k *Kernel) TickCount() freertos.TickCount {
	return freertos.TickCount(time.Since(k.epoch) / k.tickPeriod)
}

// TaskDelay suspends the calling goroutine for the given tick count.
func (k *Kernel) TaskDelay(ticks freertos.TickCount) {
	time.Sleep(k.duration(ticks))
}

// TaskYield offers the processor to other ready goroutines.
func (k *Kernel) TaskYield() {
	runtime.Gosched()
}

// HeapStats implements freertos.HeapStatsProvider.
func (k *Kernel) HeapStats() freertos.HeapStats {
	return k.heap.stats()
}

// duration converts a tick count to wall-clock time. MaxDelay converts to a
// finite but effectively unbounded span; callers select on nil channels for
// true indefinite waits instead.
func (k *Kernel) duration(ticks freertos.TickCount) time.Duration {
	return time.Duration(ticks) * k.tickPeriod
}

// handle allocates a fresh handle value, unique across object kinds.
// Callers must hold k.mu.
func (k *Kernel) handle() uint64 {
	k.lastHandle++
	return k.lastHandle
}
