package reactive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
)

// Scheduler runs listener tasks outside the call stack that triggered them.
type Scheduler interface {
	Schedule(task func())
}

// Queue is a FIFO task queue. Tasks run when Flush is called or while Run is
// active. It is safe to schedule from any goroutine.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Schedule appends a task.
func (q *Queue) Schedule(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Flush runs pending tasks until the queue is empty, including tasks
// scheduled by the tasks it runs. It returns the number of tasks run.
func (q *Queue) Flush() int {
	n := 0
	for {
		q.mu.Lock()
		tasks := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		if len(tasks) == 0 {
			return n
		}
		for _, task := range tasks {
			runTask(task)
			n++
		}
	}
}

// Run flushes the queue whenever tasks arrive until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	q.Flush()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
			q.Flush()
		}
	}
}

// runTask runs one task, turning a panic into a diagnostic.
func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			diag.Report(errors.CodeListenerPanic, "", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}

var (
	schedulerMu sync.RWMutex
	scheduler   Scheduler = NewQueue()
)

// CurrentScheduler returns the scheduler used for listener dispatch.
func CurrentScheduler() Scheduler {
	schedulerMu.RLock()
	defer schedulerMu.RUnlock()
	return scheduler
}

// SetScheduler replaces the scheduler and returns the previous one.
func SetScheduler(s Scheduler) Scheduler {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	old := scheduler
	if s == nil {
		s = NewQueue()
	}
	scheduler = s
	return old
}

// Flush drains the current scheduler if it supports flushing.
// It returns the number of tasks run.
func Flush() int {
	if f, ok := CurrentScheduler().(interface{ Flush() int }); ok {
		return f.Flush()
	}
	return 0
}

// schedule queues a listener call tagged with its propagation depth.
func schedule(depth int, task func()) {
	CurrentScheduler().Schedule(func() {
		withDepth(depth, task)
	})
}

// Batch runs fn and then, at the outermost batch, flushes the scheduler.
// Every Set inside fn still notifies its own listeners; batching only moves
// their execution to a single point after fn returns.
//
// Example:
//
//	reactive.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	})
func Batch(fn func()) {
	ctx := acquire()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		done := ctx.batchDepth == 0
		release(ctx)
		if done {
			Flush()
		}
	}()

	fn()
}
