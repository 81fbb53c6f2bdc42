package freertos_test

import (
	"testing"

	freertos "github.com/veecle/freertos-integration"
	"github.com/veecle/freertos-integration/hostkernel"
)

// newTestKernel configures a fresh host kernel as the process-wide kernel for
// the duration of the test. Tests share the package-level kernel slot, so
// none of them may run in parallel.
func newTestKernel(t *testing.T, opts ...hostkernel.Option) *hostkernel.Kernel {
	t.Helper()
	k := hostkernel.New(opts...)
	freertos.SetKernel(k)
	t.Cleanup(func() {
		freertos.SetKernel(nil)
		k.Shutdown()
	})
	return k
}
