package freertos

import "time"

// DefaultTickRateHz is assumed by duration conversions when no kernel is
// configured. It matches the common 1ms tick.
const DefaultTickRateHz uint32 = 1000

// Duration is a tick-granular span of time, the unit every blocking operation
// in this package is parameterized by. The zero value means "do not block";
// see also Forever.
//
// Conversions to and from wall-clock time use the configured kernel's tick
// rate and may therefore lose sub-tick precision.
type Duration struct {
	ticks TickCount
}

// DurationFromTicks returns a Duration of exactly the given tick count.
func DurationFromTicks(ticks TickCount) Duration {
	return Duration{ticks: ticks}
}

// DurationFromMS returns a Duration of the given number of milliseconds,
// rounded down to tick granularity.
func DurationFromMS(milliseconds uint32) Duration {
	return DurationFromTime(time.Duration(milliseconds) * time.Millisecond)
}

// DurationFromTime converts a wall-clock duration, rounding down to tick
// granularity. Negative durations convert to NoWait.
func DurationFromTime(d time.Duration) Duration {
	if d <= 0 {
		return NoWait()
	}
	ticks := uint64(d) / uint64(TickPeriod())
	if ticks >= uint64(MaxDelay) {
		return Forever()
	}
	return Duration{ticks: TickCount(ticks)}
}

// Forever returns the sentinel meaning "wait indefinitely".
func Forever() Duration {
	return Duration{ticks: MaxDelay}
}

// NoWait returns the zero Duration, meaning "do not block".
func NoWait() Duration {
	return Duration{}
}

// Eps returns the smallest blocking Duration, one tick.
func Eps() Duration {
	return Duration{ticks: 1}
}

// Ticks returns the tick count this Duration represents.
func (d Duration) Ticks() TickCount {
	return d.ticks
}

// IsForever reports whether d is the "wait indefinitely" sentinel.
func (d Duration) IsForever() bool {
	return d.ticks == MaxDelay
}

// IsZero reports whether d is the "do not block" value.
func (d Duration) IsZero() bool {
	return d.ticks == 0
}

// Milliseconds returns the duration in milliseconds, at tick granularity.
func (d Duration) Milliseconds() uint32 {
	return uint32(d.TimeDuration() / time.Millisecond)
}

// TimeDuration returns the wall-clock equivalent of d. The Forever sentinel
// converts without special meaning; check IsForever first where it matters.
func (d Duration) TimeDuration() time.Duration {
	return time.Duration(d.ticks) * TickPeriod()
}

// TickRateHz returns the configured kernel's tick rate, or DefaultTickRateHz
// when no kernel is configured.
func TickRateHz() uint32 {
	globalKernel.RLock()
	defer globalKernel.RUnlock()
	if globalKernel.kernel == nil {
		return DefaultTickRateHz
	}
	return globalKernel.kernel.TickRateHz()
}

// TickPeriod returns the wall-clock length of one kernel tick.
func TickPeriod() time.Duration {
	hz := TickRateHz()
	if hz == 0 {
		hz = DefaultTickRateHz
	}
	return time.Second / time.Duration(hz)
}
