// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package psg

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/petenewcomb/latticesim-go/internal/state"
)

// Job represents a single-threaded scatter-gather execution environment. It
// tracks tasks launched with [Gather.Scatter] across the [TaskPool] instances
// bound to it and provides [Job.GatherAll] and [Job.CloseAndGatherAll] for
// gathering their results.
//
// Each call to NewJob should be followed by a deferred call to
// [Job.CancelAndWait] so that an early return does not leave tasks running.
type Job struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	inFlight   state.InFlightCounter
	gatherChan chan boundGatherFunc
	wg         sync.WaitGroup
	done       atomic.Bool
}

type boundGatherFunc = func(ctx context.Context) error

// NewJob creates a job whose task context derives from ctx.
func NewJob(ctx context.Context) *Job {
	if ctx == nil {
		panic("context must be non-nil")
	}
	j := &Job{
		gatherChan: make(chan boundGatherFunc),
	}
	ctx, j.cancelFunc = context.WithCancel(ctx)
	j.ctx = context.WithValue(ctx, taskContextKey{}, j)
	return j
}

type taskContextKey struct{}

func (j *Job) isTaskContext(ctx context.Context) bool {
	owner, _ := ctx.Value(taskContextKey{}).(*Job)
	return owner == j
}

func (j *Job) panicIfDone() {
	if j.done.Load() {
		panic("job is done")
	}
}

// CancelAndWait cancels the job and waits for all task goroutines to exit.
func (j *Job) CancelAndWait() {
	j.cancelFunc()
	j.wg.Wait()
}

// gatherOne processes at most one completed task result, blocking until one
// is available. It returns false, nil if nothing is in flight.
func (j *Job) gatherOne(ctx context.Context) (bool, error) {
	if !j.inFlight.GreaterThanZero() {
		return false, nil
	}
	select {
	case gather := <-j.gatherChan:
		return true, j.executeGather(ctx, gather)
	case <-ctx.Done():
		return false, ctx.Err()
	case <-j.ctx.Done():
		return false, j.ctx.Err()
	}
}

// GatherAll processes results until nothing remains in flight or a gather
// function returns an error.
func (j *Job) GatherAll(ctx context.Context) error {
	for {
		ok, err := j.gatherOne(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// CloseAndGatherAll marks the job done, gathers every remaining result and
// releases the job's resources. Scattering into a closed job panics. On error
// the job is canceled before returning.
func (j *Job) CloseAndGatherAll(ctx context.Context) error {
	j.done.Store(true)
	if err := j.GatherAll(ctx); err != nil {
		j.CancelAndWait()
		return err
	}
	j.wg.Wait()
	j.cancelFunc()
	return nil
}

func (j *Job) executeGather(ctx context.Context, gather boundGatherFunc) error {
	// Decrement only after the gather function returns so that the in-flight
	// count never drops to zero before the gather has had a chance to scatter
	// follow-on tasks.
	defer j.inFlight.Decrement()
	return gather(ctx)
}
