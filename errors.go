package freertos

import "errors"

// Standard errors. All are recoverable by the caller; no operation in this
// package fails fatally in normal control flow.
var (
	// ErrOutOfMemory is returned when the kernel allocator cannot satisfy a
	// create request.
	ErrOutOfMemory = errors.New("freertos: out of memory")

	// ErrQueueFull is returned by queue sends that find no space within the
	// allowed wait.
	ErrQueueFull = errors.New("freertos: queue full")

	// ErrQueueEmpty is returned by queue receives that find no item within
	// the allowed wait.
	ErrQueueEmpty = errors.New("freertos: queue empty")

	// ErrTimeout is returned by notification waits that see no notification
	// within the allowed wait.
	ErrTimeout = errors.New("freertos: timeout")

	// ErrCommandQueueFull is returned when a timer command could not be
	// posted to the kernel's timer command queue within the block timeout.
	ErrCommandQueueFull = errors.New("freertos: timer command queue full")

	// ErrInvalidArgument is returned for zero capacities, zero timer periods,
	// and any use of a handle after it has been deleted.
	ErrInvalidArgument = errors.New("freertos: invalid argument")

	// ErrNotificationPending is returned by NotifySetValue when the target
	// task already has a notification pending.
	ErrNotificationPending = errors.New("freertos: notification already pending")

	// ErrKernelNotConfigured is returned when no kernel has been configured
	// via SetKernel.
	ErrKernelNotConfigured = errors.New("freertos: no kernel configured")
)
