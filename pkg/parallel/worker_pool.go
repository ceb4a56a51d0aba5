package parallel

import (
	"fmt"
	"runtime"
	"sync"
)

// WorkerPool runs submitted tasks on a fixed set of goroutines.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	onPanic   func(recovered any)
}

// MaxWorkers bounds the pool size; link counts never come close.
const MaxWorkers = 1024

// NewWorkerPool creates a pool with the given number of workers. Values <= 0
// select GOMAXPROCS; values above MaxWorkers are clamped.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	pool.start()
	return pool
}

// OnPanic installs a hook called with the recovered value when a task panics.
// Must be set before tasks are submitted.
func (wp *WorkerPool) OnPanic(fn func(recovered any)) {
	wp.onPanic = fn
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		func() {
			defer func() {
				if r := recover(); r != nil && wp.onPanic != nil {
					wp.onPanic(r)
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the pool.
// Returns false if the pool is closed, true if the task was queued.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// PanicError is returned by Map when fn panics for an item.
type PanicError struct {
	Index     int
	Recovered any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Recovered)
}

// Map applies fn to every item on a fresh pool and returns the results in
// input order. The first error by index wins; all items are still run.
func Map[T, R any](workers int, items []T, fn func(i int, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	errs := make([]error, len(items))

	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}
	pool := NewWorkerPool(workers)

	var done sync.WaitGroup
	for i, item := range items {
		done.Add(1)
		pool.Submit(func() {
			defer done.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = &PanicError{Index: i, Recovered: r}
				}
			}()
			results[i], errs[i] = fn(i, item)
		})
	}
	done.Wait()
	pool.Close()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
