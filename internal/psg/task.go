// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package psg

import (
	"context"
	"fmt"
)

// A TaskFunc is executed in its own goroutine by [Gather.Scatter] and must
// therefore be thread-safe, including its access to captured variables. The
// provided context is canceled when the job is canceled.
//
// A TaskFunc must not call Scatter on its own job; it may however create and
// drain a sub-[Job] before returning.
type TaskFunc[T any] = func(context.Context) (T, error)

type boundTaskFunc func(ctx context.Context)

// runTask converts a panic inside taskFunc into ErrTaskPanic so that the
// gather side always sees a result.
func runTask[T any](ctx context.Context, taskFunc TaskFunc[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return taskFunc(ctx)
}
