package freertos_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	freertos "github.com/veecle/freertos-integration"
)

func TestRunInterruptFreshContext(t *testing.T) {
	newTestKernel(t)

	var ran bool
	freertos.RunInterrupt(func(ic *freertos.InterruptContext) {
		ran = true
		assert.False(t, ic.HigherPriorityTaskWoken(), "context starts un-woken")
	})
	require.True(t, ran)
}

func TestRunInterruptNilHandlerPanics(t *testing.T) {
	assert.Panics(t, func() {
		freertos.RunInterrupt(nil)
	})
}

func TestRunInterruptWokenFlagSticks(t *testing.T) {
	newTestKernel(t)

	q, err := freertos.NewQueue[int](4)
	require.NoError(t, err)

	received := make(chan int, 1)
	_, err = freertos.SpawnTask(`consumer`, 1, func(*freertos.Task) {
		if item, err := q.Receive(freertos.Forever()); err == nil {
			received <- item
		}
	})
	require.NoError(t, err)

	// Give the consumer time to block on the empty queue.
	time.Sleep(50 * time.Millisecond)

	freertos.RunInterrupt(func(ic *freertos.InterruptContext) {
		require.NoError(t, q.SendFromISR(ic, 1))
		require.True(t, ic.HigherPriorityTaskWoken())

		// A later send that wakes nobody must not clear the flag.
		require.NoError(t, q.SendFromISR(ic, 2))
		assert.True(t, ic.HigherPriorityTaskWoken())
	})

	assert.Equal(t, 1, <-received)
}

func TestSendFromISRNilContextPanics(t *testing.T) {
	newTestKernel(t)

	q, err := freertos.NewQueue[int](1)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = q.SendFromISR(nil, 1)
	})
}
