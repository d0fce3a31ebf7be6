package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPool bounds concurrent model calls with a semaphore. Chunks of one
// document are independent, so summarization fans out through the pool and
// callers reassemble results by index.
type WorkerPool struct {
	maxConcurrent int
	logger        *zap.Logger
}

// NewWorkerPool creates a pool allowing up to maxConcurrent in-flight calls.
func NewWorkerPool(maxConcurrent int, logger *zap.Logger) *WorkerPool {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &WorkerPool{
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("llm-worker-pool"),
	}
}

// WorkItem is a unit of work identified by its position in the input.
type WorkItem[T any] struct {
	Index   int
	Execute func(ctx context.Context) (T, error)
}

// WorkResult carries one item's outcome, tagged with its original index.
type WorkResult[T any] struct {
	Index  int
	Result T
	Err    error
}

// Process executes all work items with bounded parallelism and returns
// results indexed by submission order, so results[i] corresponds to
// items[i]. All items run even if some fail; per-item errors are carried
// in the result slice.
func Process[T any](ctx context.Context, pool *WorkerPool, items []WorkItem[T]) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], len(items))
	sem := make(chan struct{}, pool.maxConcurrent)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(slot int, item WorkItem[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[slot] = WorkResult[T]{Index: item.Index, Err: ctx.Err()}
				return
			}

			result, err := item.Execute(ctx)
			results[slot] = WorkResult[T]{Index: item.Index, Result: result, Err: err}
		}(i, item)
	}
	wg.Wait()

	return results
}
