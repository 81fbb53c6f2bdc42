package freertos

// InterruptContext tracks whether an interrupt-safe call unblocked a
// higher-priority task, so the interrupt can hand the processor over on exit
// rather than mid-handler.
//
// A context is only ever produced by RunInterrupt; possessing one is the
// capability to call the *FromISR entry points. It must not be retained past
// the handler it was produced for.
type InterruptContext struct {
	_     [0]func() // prevent accidental copying.
	woken bool
}

// HigherPriorityTaskWoken reports whether any interrupt-safe call made with
// this context unblocked a task of higher priority than the one interrupted.
func (x *InterruptContext) HigherPriorityTaskWoken() bool {
	return x.woken
}

func (x *InterruptContext) noteWoken(woken bool) {
	if woken {
		x.woken = true
	}
}

// RunInterrupt is the interrupt-entry wrapper: it runs fn with a fresh
// InterruptContext, then requests a yield from the kernel if any call made
// with the context woke a higher-priority task (the deferred context switch
// at interrupt exit).
//
// A nil fn causes a panic.
func RunInterrupt(fn func(*InterruptContext)) {
	if fn == nil {
		panic(`freertos: nil interrupt handler`)
	}

	var ic InterruptContext
	fn(&ic)

	if ic.woken {
		if k, err := configuredKernel(); err == nil {
			k.TaskYield()
		}
	}
}
