// Package workerpool runs independent units of work with bounded parallelism.
//
// Every submitted task gets a Result. Cancelling the context stops new tasks
// from starting; tasks already running finish and report their own outcome.
package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// State is the final state of a task
type State int

const (
	// StatePending indicates the task has not been started
	StatePending State = iota
	// StateCompleted indicates the task returned without error
	StateCompleted
	// StateFailed indicates the task returned an error or panicked
	StateFailed
	// StateCancelled indicates the task was never started because the context was done
	StateCancelled
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Task is one unit of work. It should observe ctx for long operations.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the handle for one submitted task
type Result[T any] struct {
	Index int   // position of the task in the submitted slice
	Value T     // task value, zero unless the task ran
	Err   error // task error, ctx error for cancelled tasks
	State State
}

// Run executes tasks with at most size running at once and returns one
// Result per task in submission order. The context is checked before each
// task is started. A size below 1 runs tasks one at a time.
func Run[T any](ctx context.Context, size int, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	for i := range results {
		results[i] = Result[T]{Index: i, State: StatePending}
	}

	var g errgroup.Group
	g.SetLimit(max(size, 1))

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			markCancelled(results[i:], err)
			break
		}

		// blocks until a slot is free
		g.Go(func() error {
			res := &results[i]
			if err := ctx.Err(); err != nil {
				res.State = StateCancelled
				res.Err = err
				return nil
			}
			res.Value, res.Err = runTask(ctx, task)
			if res.Err != nil {
				res.State = StateFailed
			} else {
				res.State = StateCompleted
			}
			return nil
		})
	}

	_ = g.Wait() // tasks report through results, never through the group
	return results
}

func markCancelled[T any](results []Result[T], err error) {
	for i := range results {
		results[i].State = StateCancelled
		results[i].Err = err
	}
}

// runTask converts a panic into an error
func runTask[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return task(ctx)
}

// Summary counts results by state
type Summary struct {
	Completed int
	Failed    int
	Cancelled int
}

// Summarize counts results by state
func Summarize[T any](results []Result[T]) Summary {
	var s Summary
	for i := range results {
		switch results[i].State {
		case StateCompleted:
			s.Completed++
		case StateFailed:
			s.Failed++
		case StateCancelled:
			s.Cancelled++
		}
	}
	return s
}
