// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package psg

import (
	"context"

	"github.com/petenewcomb/latticesim-go/internal/state"
)

// A TaskPool is a bounded set of task execution slots within a [Job].
type TaskPool struct {
	job      *Job
	limit    int
	inFlight state.InFlightCounter
}

// NewTaskPool creates a pool bound to job. A negative limit means no limit;
// a zero limit would block forever and panics.
func NewTaskPool(job *Job, limit int) *TaskPool {
	if job == nil {
		panic("job must be non-nil")
	}
	if limit == 0 {
		panic("pool limit must be non-zero")
	}
	job.panicIfDone()
	return &TaskPool{
		job:   job,
		limit: limit,
	}
}

// PeakConcurrency returns the largest number of tasks that were ever running
// in the pool at the same time.
func (p *TaskPool) PeakConcurrency() int {
	return int(p.inFlight.Peak())
}

func (p *TaskPool) launch(ctx context.Context, task boundTaskFunc) error {
	j := p.job

	// Don't launch if the provided context has been canceled.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Don't launch if the job context has been canceled.
	if err := j.ctx.Err(); err != nil {
		return err
	}

	// Apply backpressure by gathering completed results until a slot frees
	// up. Tasks release their slot before posting their result, so every
	// gathered result implies room for at least one more launch.
	for !p.inFlight.IncrementIfUnder(p.limit) {
		if _, err := j.gatherOne(ctx); err != nil {
			return err
		}
	}

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		task(j.ctx)
	}()
	return nil
}
