package freertos_test

import (
	"fmt"

	freertos "github.com/veecle/freertos-integration"
	"github.com/veecle/freertos-integration/hostkernel"
)

func Example() {
	kernel := hostkernel.New()
	defer kernel.Shutdown()
	freertos.SetKernel(kernel)
	defer freertos.SetKernel(nil)

	queue, err := freertos.NewQueue[string](4)
	if err != nil {
		panic(err)
	}

	done := make(chan struct{})
	_, err = freertos.SpawnTask(`consumer`, 1, func(*freertos.Task) {
		defer close(done)
		for i := 0; i < 3; i++ {
			item, err := queue.Receive(freertos.Forever())
			if err != nil {
				return
			}
			fmt.Printf("received: %s\n", item)
		}
	})
	if err != nil {
		panic(err)
	}

	for _, item := range []string{`alpha`, `beta`, `gamma`} {
		if err := queue.Send(item, freertos.Forever()); err != nil {
			panic(err)
		}
	}
	<-done

	//output:
	//received: alpha
	//received: beta
	//received: gamma
}

func ExampleRunInterrupt() {
	kernel := hostkernel.New()
	defer kernel.Shutdown()
	freertos.SetKernel(kernel)
	defer freertos.SetKernel(nil)

	queue, err := freertos.NewQueue[uint32](1)
	if err != nil {
		panic(err)
	}

	// Interrupt handlers may only use the *FromISR entry points, gated on
	// the context RunInterrupt hands them.
	freertos.RunInterrupt(func(ic *freertos.InterruptContext) {
		if err := queue.SendFromISR(ic, 42); err != nil {
			panic(err)
		}
		fmt.Println(`woken:`, ic.HigherPriorityTaskWoken())
	})

	item, err := queue.Receive(freertos.NoWait())
	if err != nil {
		panic(err)
	}
	fmt.Println(`item:`, item)

	//output:
	//woken: false
	//item: 42
}
