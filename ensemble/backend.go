package ensemble

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/stackgo/pkg/errors"
)

// Task is one unit of work within a dispatch phase. Tasks of a phase are
// independent: no task may depend on another task's in-memory state.
type Task func() error

// Backend executes a batch of independent tasks and blocks until every task
// has completed or failed. The engine does not manage the backend's
// lifecycle; implementations decide between goroutines, processes, or remote
// workers, as long as the cache directory stays visible to all of them.
type Backend interface {
	Run(tasks []Task) error
}

// PoolBackend executes tasks on a bounded pool of goroutines.
// The zero value uses one worker per CPU core.
type PoolBackend struct {
	// Workers caps concurrency. Zero or negative means runtime.NumCPU().
	Workers int
}

// Run implements Backend. Panics inside tasks are recovered and converted to
// errors so a panicking estimator aborts the phase, not the process. When
// several tasks fail, the error of the earliest submitted task is returned.
func (b PoolBackend) Run(tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	next := make(chan int)
	go func() {
		for i := range tasks {
			next <- i
		}
		close(next)
	}()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				task := tasks[i]
				errs[i] = errors.SafeExecute("ensemble task", task)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
