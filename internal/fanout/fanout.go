// Package fanout runs independent lookups concurrently and waits for all of
// them.
//
// Join is a join, not a race: it returns only after every op has finished,
// and each op's outcome is kept in its own slot. One failing op never
// cancels or hides another.
package fanout

import (
	"context"
	"fmt"
	"sync"
)

// Op is one unit of concurrent work.
type Op[T any] func(ctx context.Context) (T, error)

// Result is the outcome of one Op.
type Result[T any] struct {
	Value T
	Err   error
}

// ValueOr returns the value, or fallback when the op failed.
func (r Result[T]) ValueOr(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

// Join runs every op in its own goroutine and returns their results in op
// order. A panic inside an op is recovered and reported as that op's error.
func Join[T any](ctx context.Context, ops ...Op[T]) []Result[T] {
	return JoinLimit(ctx, 0, ops...)
}

// JoinLimit is Join with at most limit ops running at once; limit <= 0 means
// no bound. An op still waiting for a slot when ctx is done is not started
// and reports ctx.Err().
func JoinLimit[T any](ctx context.Context, limit int, ops ...Op[T]) []Result[T] {
	results := make([]Result[T], len(ops))
	if limit <= 0 || limit > len(ops) {
		limit = len(ops)
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, op := range ops {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = Result[T]{Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			defer func() {
				if rec := recover(); rec != nil {
					results[i] = Result[T]{Err: fmt.Errorf("fanout: op %d panicked: %v", i, rec)}
				}
			}()

			v, err := op(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}()
	}
	wg.Wait()

	return results
}
