// Package fanout provides a bounded-parallelism task runner. The market-data
// provider enforces a request-rate ceiling, so fan-out across dozens of
// companies is capped by a fixed worker count instead of retried on 429.
package fanout

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is a unit of work producing a value of type T. Tasks are expected to
// normalize their own failures into a sentinel value (typically nil); the
// runner performs no retry and no error suppression.
type Task[T any] func(ctx context.Context) T

// Run executes tasks with at most limit running concurrently and returns
// results in task order regardless of completion order.
func Run[T any](ctx context.Context, tasks []Task[T], limit int) []T {
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if limit > len(tasks) {
		limit = len(tasks)
	}
	if limit < 1 {
		limit = 1
	}

	// Shared cursor; each worker claims the next unclaimed index.
	var cursor int64 = -1

	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1))
				if i >= len(tasks) {
					return
				}
				results[i] = tasks[i](ctx)
			}
		}()
	}
	wg.Wait()

	return results
}
