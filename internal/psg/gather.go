// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package psg

import (
	"context"
)

// A GatherFunc processes the result of a completed [TaskFunc]. Gather
// functions run on the goroutine that called [Gather.Scatter] or one of the
// [Job] gathering methods, never concurrently with each other.
type GatherFunc[T any] = func(context.Context, T, error) error

// Gather binds a GatherFunc to the tasks scattered through it.
type Gather[T any] struct {
	gatherFunc GatherFunc[T]
}

// NewGather returns a Gather that delivers results to gatherFunc.
func NewGather[T any](gatherFunc GatherFunc[T]) *Gather[T] {
	if gatherFunc == nil {
		panic("gather function must be non-nil")
	}
	return &Gather[T]{
		gatherFunc: gatherFunc,
	}
}

// Scatter launches taskFunc in a new goroutine within pool. Once the task
// completes, its result is passed to the Gather's function during a later
// call to Scatter or one of the Job's gathering methods.
//
// Scatter blocks while the pool is at its limit, gathering results in the
// meantime. It returns a non-nil error if ctx or the job is canceled or a
// gather function fails; in that case taskFunc was not launched.
func (g *Gather[T]) Scatter(ctx context.Context, pool *TaskPool, taskFunc TaskFunc[T]) error {
	if taskFunc == nil {
		panic("task function must be non-nil")
	}
	j := pool.job
	if j.isTaskContext(ctx) {
		panic("Scatter called from within TaskFunc; use a sub-job instead")
	}
	j.panicIfDone()

	// Register the task with the job first so that gathering during
	// backpressure keeps waiting for it.
	j.inFlight.Increment()
	err := pool.launch(ctx, func(ctx context.Context) {
		value, err := runTask(ctx, taskFunc)

		// Release the pool slot BEFORE posting the result, so that a gather
		// function may scatter into the same pool without deadlock.
		pool.inFlight.Decrement()

		gather := func(ctx context.Context) error {
			return g.gatherFunc(ctx, value, err)
		}
		select {
		case j.gatherChan <- gather:
		case <-j.ctx.Done():
		}
	})
	if err != nil {
		j.inFlight.Decrement()
	}
	return err
}
