// Package freertos exposes the primitive operations of a FreeRTOS-style
// real-time kernel as a safe, ownership-aware Go API: bounded queues with
// blocking send/receive, software timers driven by the kernel's timer service
// task, direct-to-task notifications, and tick-granular durations.
//
// # Architecture
//
// The package is a binding layer, not a kernel. All scheduling, blocking and
// synchronization is delegated to a [Kernel] implementation configured via
// [SetKernel]; the binding layer owns handle lifecycles, translates kernel
// status into the package's error values, and enforces the split between
// task-context and interrupt-context entry points.
//
// The hostkernel subpackage provides an in-process kernel port backed by
// goroutines and timers, suitable for tests and host builds.
//
// # Blocking and timeouts
//
// Every operation that may suspend the calling task takes an explicit
// [Duration], including the [Forever] and [NoWait] sentinels. A blocked
// operation is released only by timeout expiry or by the resource becoming
// available; there is no external cancellation at this layer.
//
// # Interrupt context
//
// Interrupt-safe variants (SendFromISR, StartFromISR, NotifyFromISR, ...)
// never block. They require an [*InterruptContext], obtainable only inside
// [RunInterrupt], which requests a deferred yield on exit if any call woke a
// higher-priority task. Task-context entry points do not accept the context,
// so misuse of either kind is a compile error.
//
// # Ownership
//
// Queue and timer wrappers exclusively own the kernel object they were
// created with. Delete consumes the wrapper: a second delete, or any
// operation after delete, deterministically returns [ErrInvalidArgument].
// Tasks are owned by the scheduler; a [Task] is a back-reference only.
package freertos
