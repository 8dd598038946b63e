// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package resource models the simulated processing units that partitions are
// scheduled onto, and the analytic execution model that estimates how long
// each unit takes and how accurate its results are.
//
// A [Resource] is mutated only by [Resource.Assign] during scheduling and by
// [Resource.Execute] during execution. Execution of different resources shares
// no mutable state, so each resource may be executed by its own goroutine as
// long as exactly one goroutine owns it.
package resource

import (
	"fmt"

	"github.com/gammazero/deque"

	"github.com/petenewcomb/latticesim-go/partition"
)

// Interval is one partition's slot on its resource's timeline.
type Interval struct {
	Start, End float64
	Partition  *partition.Partition
}

// Task records the execution of one partition. It is produced once and never
// recomputed.
type Task struct {
	Partition      *partition.Partition
	ResourceID     int
	Class          Class
	Start, End     float64
	ProcessingTime float64
	Accuracy       float64
}

// Resource is one processing unit: a FIFO queue of assigned partitions and
// the timeline of those it has executed. It is not safe for concurrent use.
type Resource struct {
	ID          int
	capability  Capability
	queue       deque.Deque[*partition.Partition]
	load        int
	utilization float64
	processed   map[int]struct{}
	trace       []Interval
}

// New returns an idle resource with the given id and capability.
func New(id int, capability Capability) *Resource {
	if capability == nil {
		panic("capability must be non-nil")
	}
	return &Resource{
		ID:         id,
		capability: capability,
		processed:  make(map[int]struct{}),
	}
}

func (r *Resource) String() string {
	return fmt.Sprintf("Resource#%d(%v)", r.ID, r.capability.Class())
}

// Class reports the resource's capability class.
func (r *Resource) Class() Class { return r.capability.Class() }

// MaxComplexity returns the largest complexity the resource accepts.
func (r *Resource) MaxComplexity() int { return r.capability.MaxComplexity() }

// CanHandle reports whether the capability accepts complexity.
func (r *Resource) CanHandle(complexity int) bool {
	return r.capability.CanHandle(complexity)
}

// Load is the summed complexity of every assigned partition.
func (r *Resource) Load() int { return r.load }

// QueueLen returns the number of assigned partitions.
func (r *Resource) QueueLen() int { return r.queue.Len() }

// Queue returns the assigned partitions in assignment order.
func (r *Resource) Queue() []*partition.Partition {
	out := make([]*partition.Partition, r.queue.Len())
	for i := range out {
		out[i] = r.queue.At(i)
	}
	return out
}

// Utilization is the summed processing time of every executed partition.
func (r *Resource) Utilization() float64 { return r.utilization }

// Trace returns the execution intervals in execution order.
func (r *Resource) Trace() []Interval {
	return append([]Interval(nil), r.trace...)
}

// Assign appends p to the queue. It panics if p exceeds the resource's
// capability, since the scheduler must never attempt that.
func (r *Resource) Assign(p *partition.Partition) {
	if !r.capability.CanHandle(p.Complexity) {
		panic(fmt.Sprintf("%v cannot handle %v with complexity %d", r, p, p.Complexity))
	}
	r.queue.PushBack(p)
	r.load += p.Complexity
}

// Execute runs every not-yet-executed partition in assignment order and
// returns their task records. Partitions already executed are skipped, so
// calling Execute again only processes newly assigned work.
func (r *Resource) Execute() []Task {
	var tasks []Task
	start := r.utilization
	for i := range r.queue.Len() {
		p := r.queue.At(i)
		if _, done := r.processed[p.Index]; done {
			continue
		}
		r.processed[p.Index] = struct{}{}

		pt := r.capability.ProcessingTime(p.Complexity)
		p.Accuracy = clampAccuracy(r.capability.Degrade(p.Accuracy))
		end := start + pt
		r.trace = append(r.trace, Interval{Start: start, End: end, Partition: p})
		tasks = append(tasks, Task{
			Partition:      p,
			ResourceID:     r.ID,
			Class:          r.capability.Class(),
			Start:          start,
			End:            end,
			ProcessingTime: pt,
			Accuracy:       p.Accuracy,
		})
		r.utilization += pt
		start = end
	}
	return tasks
}

func clampAccuracy(a float64) float64 {
	return min(max(a, 0), partition.BaselineAccuracy)
}

// MaxTimeTaken returns the largest utilization over resources, or 0 if there
// are none.
func MaxTimeTaken(resources []*Resource) float64 {
	var m float64
	for _, r := range resources {
		m = max(m, r.utilization)
	}
	return m
}
