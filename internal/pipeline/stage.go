package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Task is one named unit of work in a parallel stage.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// StageResult reports per-task durations and errors for a parallel stage.
type StageResult struct {
	Durations map[string]time.Duration
	Errors    map[string]error
	Total     time.Duration
}

// RunParallel starts every task at once and waits for all of them. A failing
// task does not cancel the others. Panics are converted to errors.
func RunParallel(ctx context.Context, clock clockwork.Clock, tasks ...Task) StageResult {
	res := StageResult{
		Durations: make(map[string]time.Duration, len(tasks)),
		Errors:    make(map[string]error),
	}
	start := clock.Now()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			taskStart := clock.Now()
			err := runTask(ctx, task)
			elapsed := clock.Since(taskStart)

			mu.Lock()
			defer mu.Unlock()
			res.Durations[task.Name] = elapsed
			if err != nil {
				res.Errors[task.Name] = err
			}
		}()
	}
	wg.Wait()

	res.Total = clock.Since(start)
	return res
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	return task.Run(ctx)
}
