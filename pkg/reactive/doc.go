// Package reactive provides the observable state primitives that drive Rex.
//
// # Cells
//
// A State holds a value. Set deep-clones the new value and compares it to the
// stored one; listeners run only when the two differ.
//
//	count := reactive.NewState(0)
//	unsubscribe := count.OnChange(func(newVal, oldVal int) {
//	    fmt.Println(oldVal, "->", newVal)
//	})
//	count.Set(1)
//	reactive.Flush() // prints "0 -> 1"
//
// Listeners never run inside Set. Each one is queued on the Scheduler and runs
// when the queue is flushed (Flush, Batch, or a Queue.Run loop).
//
// # Computed values
//
// NewComputed derives a read-only value from an explicit dependency list and
// memoizes the output by a snapshot of the dependency values. NewAutoComputed
// collects the dependency list by running the function once inside a tracking
// scope. Only cells read during that first run are tracked.
//
//	double := reactive.NewComputed(func() int {
//	    return count.Get() * 2
//	}, []reactive.Source{count}, reactive.MemoKey("double"))
//	defer double.Destroy()
//
// # Async values
//
// NewAsync runs a loader in its own goroutine and exposes Data, Loading and
// Error cells.
package reactive
