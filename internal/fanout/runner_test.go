package fanout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_PreservesOrder(t *testing.T) {
	tasks := make([]Task[int], 20)
	for i := range tasks {
		n := i
		tasks[i] = func(ctx context.Context) int {
			// Later tasks finish first to exercise out-of-order completion.
			time.Sleep(time.Duration(20-n) * time.Millisecond)
			return n * 10
		}
	}

	results := Run(context.Background(), tasks, 5)

	assert.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i*10, r, "result %d out of order", i)
	}
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	const limit = 3

	var active, peak int64
	tasks := make([]Task[struct{}], 12)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) struct{} {
			n := atomic.AddInt64(&active, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&active, -1)
			return struct{}{}
		}
	}

	Run(context.Background(), tasks, limit)

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(limit))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(0))
}

func TestRun_EmptyTasks(t *testing.T) {
	results := Run[int](context.Background(), nil, 3)
	assert.Empty(t, results)
}

func TestRun_LimitLargerThanTasks(t *testing.T) {
	tasks := []Task[string]{
		func(ctx context.Context) string { return "a" },
		func(ctx context.Context) string { return "b" },
	}

	results := Run(context.Background(), tasks, 10)

	assert.Equal(t, []string{"a", "b"}, results)
}
