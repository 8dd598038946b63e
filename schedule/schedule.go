// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package schedule assigns partitions to resources with a tiered,
// least-loaded policy. Partitions too complex for the capped tier go to
// unconstrained resources; everything else goes to capped resources. Within a
// tier, partitions are taken shortest-job-first and each lands on the
// compatible resource with the smallest load, ties broken by the shorter
// queue and then by the lower resource id.
//
// Scheduling is single-threaded on purpose: each decision depends on the load
// left behind by the previous one.
package schedule

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/addrummond/heap"
	"go.uber.org/zap"

	"github.com/petenewcomb/latticesim-go/internal/cerr"
	"github.com/petenewcomb/latticesim-go/partition"
	"github.com/petenewcomb/latticesim-go/resource"
)

const (
	ErrNoLowResources     = cerr.Error("schedule: at least one capped resource is required")
	ErrUndefinedThreshold = cerr.Error("schedule: capped tier resource has no defined threshold")
)

// Result is the outcome of one scheduling pass.
type Result struct {
	// Resources lists the high resources followed by the low resources, each
	// with its queue populated.
	Resources []*resource.Resource
	// Unassigned lists partitions that no resource could accept. They appear
	// in no queue.
	Unassigned []*partition.Partition
}

// UnassignableCount is the number of partitions that were dropped.
func (r *Result) UnassignableCount() int {
	return len(r.Unassigned)
}

// Threshold returns the capped tier's shared threshold, which is taken from
// the first low resource.
func Threshold(low []*resource.Resource) (int, error) {
	if len(low) == 0 {
		return 0, ErrNoLowResources
	}
	for _, r := range low {
		if r.Class() != resource.Capped {
			return 0, fmt.Errorf("%w: resource %d is %v", ErrUndefinedThreshold, r.ID, r.Class())
		}
	}
	return low[0].MaxComplexity(), nil
}

// Schedule assigns partitions to high and low resources. It returns an error
// only for an invalid low tier, before any assignment is made. A nil logger
// disables logging.
func Schedule(partitions []*partition.Partition, high, low []*resource.Resource, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold, err := Threshold(low)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(partitions)
	slices.SortStableFunc(sorted, func(a, b *partition.Partition) int {
		return cmp.Compare(b.Complexity, a.Complexity)
	})

	var highTier, remaining []*partition.Partition
	for _, p := range sorted {
		if p.Complexity > threshold {
			highTier = append(highTier, p)
		} else {
			remaining = append(remaining, p)
		}
	}

	result := &Result{
		Resources: make([]*resource.Resource, 0, len(high)+len(low)),
	}
	result.Unassigned = append(result.Unassigned, LeastLoaded(highTier, high, math.MaxInt)...)
	result.Unassigned = append(result.Unassigned, LeastLoaded(remaining, low, threshold)...)
	result.Resources = append(result.Resources, high...)
	result.Resources = append(result.Resources, low...)

	for _, p := range result.Unassigned {
		logger.Warn("partition unassignable",
			zap.Int("partition", p.Index),
			zap.Int("complexity", p.Complexity),
			zap.Int("threshold", threshold),
			zap.Int("unconstrained", len(high)))
	}
	logger.Debug("schedule complete",
		zap.Int("partitions", len(partitions)),
		zap.Int("high_tier", len(highTier)),
		zap.Int("remaining", len(remaining)),
		zap.Int("unassigned", len(result.Unassigned)))
	return result, nil
}

// LeastLoaded assigns partitions in ascending complexity order, each to the
// compatible resource with the smallest (load, queue length, id). Partitions
// above maxComplexity or compatible with no resource are returned instead.
func LeastLoaded(partitions []*partition.Partition, resources []*resource.Resource, maxComplexity int) []*partition.Partition {
	ordered := slices.Clone(partitions)
	slices.SortStableFunc(ordered, func(a, b *partition.Partition) int {
		return cmp.Compare(a.Complexity, b.Complexity)
	})

	var candidates heap.Heap[candidate, heap.Min]
	for _, r := range resources {
		heap.PushOrderable(&candidates, newCandidate(r))
	}

	var dropped []*partition.Partition
	var skipped []candidate
	for _, p := range ordered {
		if p.Complexity > maxComplexity {
			dropped = append(dropped, p)
			continue
		}

		// Pop until the least-loaded compatible resource surfaces; the ones
		// passed over go back untouched.
		skipped = skipped[:0]
		var winner *resource.Resource
		for {
			c, ok := heap.PopOrderable(&candidates)
			if !ok {
				break
			}
			if c.r.CanHandle(p.Complexity) {
				winner = c.r
				break
			}
			skipped = append(skipped, c)
		}
		for _, c := range skipped {
			heap.PushOrderable(&candidates, c)
		}
		if winner == nil {
			dropped = append(dropped, p)
			continue
		}
		winner.Assign(p)
		heap.PushOrderable(&candidates, newCandidate(winner))
	}
	return dropped
}

// candidate snapshots a resource's ordering key. Only the winner of each
// decision changes, and it is re-pushed with a fresh snapshot.
type candidate struct {
	r        *resource.Resource
	load     int
	queueLen int
}

func newCandidate(r *resource.Resource) candidate {
	return candidate{r: r, load: r.Load(), queueLen: r.QueueLen()}
}

func (a *candidate) Cmp(b *candidate) int {
	if c := cmp.Compare(a.load, b.load); c != 0 {
		return c
	}
	if c := cmp.Compare(a.queueLen, b.queueLen); c != 0 {
		return c
	}
	return cmp.Compare(a.r.ID, b.r.ID)
}
