package freertos

import "sync/atomic"

// OnAssertFn receives a description of an invariant violation caught at the
// kernel boundary.
type OnAssertFn func(msg string)

var onAssert atomic.Pointer[OnAssertFn]

// SetOnAssert installs a hook invoked when the binding layer catches an
// invariant violation at the kernel boundary: use of a deleted handle, a
// missing kernel, a mismatched queue item type.
//
// The hook is a debug and test facility, not part of normal control flow:
// the violating operation still fails with the documented error value
// whether or not a hook is installed, and whatever the hook does (a test
// hook will typically record the message; a debug hook may panic).
//
// Passing nil removes the hook.
func SetOnAssert(fn OnAssertFn) {
	if fn == nil {
		onAssert.Store(nil)
		return
	}
	onAssert.Store(&fn)
}

// assertFailed reports an invariant violation to the hook and the logger.
// The caller is responsible for failing the operation with the appropriate
// error value.
func assertFailed(msg string) {
	logger().Warning().
		Str(`assert`, msg).
		Log(`kernel boundary invariant violated`)

	if fn := onAssert.Load(); fn != nil {
		(*fn)(msg)
	}
}
