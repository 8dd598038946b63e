// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package latticesim

import (
	"time"

	"github.com/petenewcomb/latticesim-go/lattice"
	"github.com/petenewcomb/latticesim-go/partition"
	"github.com/petenewcomb/latticesim-go/resource"
)

// Report is the outcome of one [Run].
type Report struct {
	Config     Config
	Grid       *lattice.Grid
	Partitions []*partition.Partition
	// Resources lists unconstrained resources first, then capped ones, in id
	// order.
	Resources []*resource.Resource
	// Unassigned holds the partitions no compatible resource would accept.
	Unassigned []*partition.Partition
	// Tasks holds one record per executed partition, grouped by resource in
	// Resources order and by execution order within each resource.
	Tasks []resource.Task

	// SchedulingOverhead is the wall-clock time spent in the scheduler.
	SchedulingOverhead time.Duration
	// MaxTimeTaken is the largest simulated utilization of any resource.
	MaxTimeTaken float64
	// CombineLatency is the simulated boundary reconciliation time.
	CombineLatency float64
	// TotalTime is MaxTimeTaken plus CombineLatency.
	TotalTime float64
	// NetAccuracy averages the accuracy of executed partitions and is 0 when
	// nothing executed.
	NetAccuracy float64

	// Combined is the union of every partition's node set.
	Combined      *lattice.Subgraph
	CombineRounds int

	// LimitExceeded reports TotalTime > Config.TimeLimit. It is
	// informational only.
	LimitExceeded bool
	// ExceededResources lists the resources whose utilization alone exceeds
	// Config.TimeLimit.
	ExceededResources []*resource.Resource
}

// UnassignableCount returns the number of partitions no resource accepted.
func (r *Report) UnassignableCount() int {
	return len(r.Unassigned)
}

// ResourceTrace is one resource's execution timeline.
type ResourceTrace struct {
	ResourceID int
	Class      resource.Class
	Intervals  []resource.Interval
}

// Trace returns the execution timeline of every resource, in Resources order.
// Resources that executed nothing have no intervals.
func (r *Report) Trace() []ResourceTrace {
	traces := make([]ResourceTrace, 0, len(r.Resources))
	for _, res := range r.Resources {
		traces = append(traces, ResourceTrace{
			ResourceID: res.ID,
			Class:      res.Class(),
			Intervals:  res.Trace(),
		})
	}
	return traces
}
