package freertos

// TickCountNow returns the count of ticks since the kernel started, or zero
// when no kernel is configured.
func TickCountNow() TickCount {
	k, err := configuredKernel()
	if err != nil {
		return 0
	}
	return k.TickCount()
}

// TickCountDuration is TickCountNow expressed as a Duration.
func TickCountDuration() Duration {
	return DurationFromTicks(TickCountNow())
}

// Delay suspends the calling task for at least d. A no-op when no kernel is
// configured.
func Delay(d Duration) {
	k, err := configuredKernel()
	if err != nil {
		return
	}
	k.TaskDelay(d.Ticks())
}

// Yield offers the processor to other ready tasks. A no-op when no kernel is
// configured.
func Yield() {
	k, err := configuredKernel()
	if err != nil {
		return
	}
	k.TaskYield()
}
