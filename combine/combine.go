// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package combine reassembles partition subgraphs into a single subgraph by
// pairwise merge-reduce over a bounded worker pool, charging simulated
// latency for the boundary nodes that each merge has to reconcile.
//
// Each round pre-merges the last two inputs when the count is odd, then
// merges disjoint adjacent pairs concurrently. Results are gathered on the
// calling goroutine, which is also the only writer of the latency total.
package combine

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"go.uber.org/zap"

	"github.com/petenewcomb/latticesim-go/internal/cerr"
	"github.com/petenewcomb/latticesim-go/internal/psg"
	"github.com/petenewcomb/latticesim-go/lattice"
)

const (
	ErrNoInputs    = cerr.Error("combine: no subgraphs to combine")
	ErrForeignNode = cerr.Error("combine: subgraph node lies outside the lattice")
)

// Config parameterizes Combine.
type Config struct {
	// Workers bounds the number of concurrent pair merges. Zero or less
	// means runtime.GOMAXPROCS(0).
	Workers int
	// BoundaryLatency is the simulated cost, in seconds, of each boundary
	// node counted by a merge.
	BoundaryLatency float64
	Logger          *zap.Logger
}

// DefaultConfig uses GOMAXPROCS workers and 1e-11 s per boundary node.
func DefaultConfig() Config {
	return Config{
		BoundaryLatency: 1e-11,
	}
}

// Result describes a completed Combine.
type Result struct {
	Lattice *lattice.Subgraph
	// Latency is the sum over every merge, odd-count pre-merges included.
	Latency float64
	Rounds  int
	Merges  int
	// PeakConcurrency is the most pair merges observed running at once.
	PeakConcurrency int
}

// MergePair unions a and b over grid and returns the merged subgraph with the
// latency for reconciling the boundary nodes of both inputs.
func MergePair(grid *lattice.Grid, a, b *lattice.Subgraph, boundaryLatency float64) (*lattice.Subgraph, float64) {
	merged := lattice.Union(grid, a, b)
	latency := float64(a.BoundaryCount()+b.BoundaryCount()) * boundaryLatency
	return merged, latency
}

type pairResult struct {
	slot    int
	merged  *lattice.Subgraph
	latency float64
}

// Combine reduces subgraphs to one. A single input is returned as is with
// zero latency.
func Combine(ctx context.Context, subgraphs []*lattice.Subgraph, grid *lattice.Grid, config Config) (*Result, error) {
	if len(subgraphs) == 0 {
		return nil, ErrNoInputs
	}
	for i, s := range subgraphs {
		for _, n := range s.Nodes() {
			if !grid.Contains(n) {
				return nil, fmt.Errorf("%w: subgraph %d node %v", ErrForeignNode, i, n)
			}
		}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &Result{}
	current := slices.Clone(subgraphs)
	for len(current) > 1 {
		if n := len(current); n%2 != 0 {
			merged, latency := MergePair(grid, current[n-2], current[n-1], config.BoundaryLatency)
			current[n-2] = merged
			current = current[:n-1]
			res.Latency += latency
			res.Merges++
		}

		next, peak, err := mergeRound(ctx, grid, current, workers, config.BoundaryLatency, res)
		if err != nil {
			return nil, err
		}
		res.Rounds++
		res.PeakConcurrency = max(res.PeakConcurrency, peak)
		logger.Debug("merge round complete",
			zap.Int("round", res.Rounds),
			zap.Int("inputs", len(current)),
			zap.Int("outputs", len(next)),
			zap.Float64("latency", res.Latency))
		current = next
	}
	res.Lattice = current[0]
	if ce := logger.Check(zap.DebugLevel, "combine complete"); ce != nil {
		ce.Write(
			zap.Int("nodes", res.Lattice.Len()),
			zap.Int("edges", len(res.Lattice.Edges())),
			zap.Int("merges", res.Merges),
			zap.Float64("latency", res.Latency))
	}
	return res, nil
}

// mergeRound merges current pairwise; len(current) must be even.
func mergeRound(ctx context.Context, grid *lattice.Grid, current []*lattice.Subgraph, workers int, boundaryLatency float64, res *Result) ([]*lattice.Subgraph, int, error) {
	job := psg.NewJob(ctx)
	defer job.CancelAndWait()
	pool := psg.NewTaskPool(job, workers)

	next := make([]*lattice.Subgraph, len(current)/2)
	latencies := make([]float64, len(next))
	gather := psg.NewGather(func(_ context.Context, r pairResult, err error) error {
		if err != nil {
			return err
		}
		next[r.slot] = r.merged
		latencies[r.slot] = r.latency
		res.Merges++
		return nil
	})
	for slot := range next {
		a, b := current[2*slot], current[2*slot+1]
		err := gather.Scatter(ctx, pool, func(ctx context.Context) (pairResult, error) {
			if err := ctx.Err(); err != nil {
				return pairResult{}, err
			}
			merged, latency := MergePair(grid, a, b, boundaryLatency)
			return pairResult{slot: slot, merged: merged, latency: latency}, nil
		})
		if err != nil {
			return nil, 0, err
		}
	}
	if err := job.CloseAndGatherAll(ctx); err != nil {
		return nil, 0, err
	}
	// Summed in slot order so the total does not depend on completion order.
	for _, latency := range latencies {
		res.Latency += latency
	}
	return next, pool.PeakConcurrency(), nil
}
