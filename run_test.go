// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package latticesim_test

import (
	"context"
	"math"
	"testing"

	latticesim "github.com/petenewcomb/latticesim-go"
	"github.com/petenewcomb/latticesim-go/internal/simtest"
	"github.com/petenewcomb/latticesim-go/partition"
	"github.com/petenewcomb/latticesim-go/resource"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

func smallConfig() latticesim.Config {
	config := latticesim.DefaultConfig()
	config.Rows, config.Cols = 4, 4
	config.Partitions = 4
	config.NumHigh, config.NumLow = 1, 1
	config.Threshold = 2
	return config
}

func TestRunRoutesByThreshold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		config := smallConfig()
		config.Seed = rapid.Uint64().Draw(t, "seed")
		config.ActivationProbability = rapid.Float64Range(0, 1).Draw(t, "activation")

		report, err := latticesim.Run(context.Background(), config)
		chk.NoError(err)
		chk.Zero(report.UnassignableCount())
		chk.Len(report.Tasks, config.Partitions)

		anyCapped := false
		for _, task := range report.Tasks {
			if task.Partition.Complexity > config.Threshold {
				chk.Equal(resource.Unconstrained, task.Class, "%v", task.Partition)
			} else {
				chk.Equal(resource.Capped, task.Class, "%v", task.Partition)
			}
			if task.Class == resource.Capped {
				anyCapped = true
			}
		}
		chk.Equal(!anyCapped, report.NetAccuracy == partition.BaselineAccuracy,
			"net accuracy %v", report.NetAccuracy)
	})
}

func TestRunWithoutCapacity(t *testing.T) {
	chk := require.New(t)
	config := smallConfig()
	config.NumHigh = 0
	config.Threshold = 0

	report, err := latticesim.Run(context.Background(), config, latticesim.WithLogger(zaptest.NewLogger(t)))
	chk.NoError(err)
	chk.Equal(config.Partitions, report.UnassignableCount())
	chk.Empty(report.Tasks)
	chk.Zero(report.MaxTimeTaken)
	chk.Zero(report.NetAccuracy)
	chk.Equal(report.CombineLatency, report.TotalTime)
	chk.True(report.Combined.Equal(report.Grid.Full()))
}

func TestRunTimeLimitIsInformational(t *testing.T) {
	chk := require.New(t)
	config := smallConfig()
	config.ActivationProbability = 0
	config.TimeLimit = 1e-9

	report, err := latticesim.Run(context.Background(), config)
	chk.NoError(err)
	chk.True(report.LimitExceeded)
	chk.Len(report.Tasks, config.Partitions)
	chk.NotEmpty(report.ExceededResources)
	for _, r := range report.ExceededResources {
		chk.Greater(r.Utilization(), config.TimeLimit)
	}

	config.TimeLimit = math.Inf(1)
	report, err = latticesim.Run(context.Background(), config)
	chk.NoError(err)
	chk.False(report.LimitExceeded)
	chk.Empty(report.ExceededResources)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	for name, mutate := range map[string]func(*latticesim.Config){
		"empty grid":          func(c *latticesim.Config) { c.Rows = 0 },
		"no partitions":       func(c *latticesim.Config) { c.Partitions = 0 },
		"no capped resources": func(c *latticesim.Config) { c.NumLow = 0 },
		"negative threshold":  func(c *latticesim.Config) { c.Threshold = -1 },
		"zero time limit":     func(c *latticesim.Config) { c.TimeLimit = 0 },
		"NaN probability":     func(c *latticesim.Config) { c.ActivationProbability = math.NaN() },
		"excessive penalty":   func(c *latticesim.Config) { c.AccuracyPenalty = 101 },
		"negative latency":    func(c *latticesim.Config) { c.BoundaryLatency = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			chk := require.New(t)
			config := latticesim.DefaultConfig()
			mutate(&config)
			_, err := latticesim.Run(context.Background(), config)
			chk.ErrorIs(err, latticesim.ErrConfiguration)
			var stageErr *latticesim.StageError
			chk.ErrorAs(err, &stageErr)
			chk.Equal(latticesim.StageValidate, stageErr.Stage)
		})
	}
}

func TestRunReportsPartitionFailure(t *testing.T) {
	chk := require.New(t)
	config := latticesim.DefaultConfig()
	config.Rows, config.Cols = 2, 2
	config.Partitions = 5

	_, err := latticesim.Run(context.Background(), config)
	chk.ErrorIs(err, partition.ErrConvergence)
	var stageErr *latticesim.StageError
	chk.ErrorAs(err, &stageErr)
	chk.Equal(latticesim.StagePartition, stageErr.Stage)
	chk.Contains(stageErr.Error(), "2x2 grid into 5 partitions")
}

func TestRunIsDeterministic(t *testing.T) {
	chk := require.New(t)
	config := latticesim.DefaultConfig()
	config.Rows, config.Cols = 12, 12
	config.Partitions = 9
	config.ActivationProbability = 0.1
	config.Seed = 42

	summarize := func(report *latticesim.Report) [][3]float64 {
		var out [][3]float64
		for _, task := range report.Tasks {
			out = append(out, [3]float64{float64(task.Partition.Index), float64(task.ResourceID), task.End})
		}
		return out
	}
	first, err := latticesim.Run(context.Background(), config)
	chk.NoError(err)
	second, err := latticesim.Run(context.Background(), config)
	chk.NoError(err)
	chk.Equal(summarize(first), summarize(second))
	chk.Equal(first.NetAccuracy, second.NetAccuracy)
	chk.Equal(first.CombineLatency, second.CombineLatency)
}

func TestRunRecordsStageSpans(t *testing.T) {
	chk := require.New(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { chk.NoError(tp.Shutdown(context.Background())) }()

	_, err := latticesim.Run(context.Background(), smallConfig(), latticesim.WithTracerProvider(tp))
	chk.NoError(err)

	names := make(map[string]int)
	for _, span := range recorder.Ended() {
		names[span.Name()]++
	}
	for _, name := range []string{
		"latticesim.run",
		"latticesim.partition",
		"latticesim.schedule",
		"latticesim.execute",
		"latticesim.combine",
	} {
		chk.Equal(1, names[name], name)
	}
}

func TestRunTraceAccountsForEveryPartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		grid := simtest.DrawGrid(t, "grid")
		pool := simtest.DrawPool(t, "pool")
		config := latticesim.DefaultConfig()
		config.Rows, config.Cols = grid.Rows, grid.Cols
		config.Partitions = rapid.IntRange(1, min(grid.Rows*grid.Cols, 12)).Draw(t, "partitions")
		config.NumHigh, config.NumLow, config.Threshold = pool.NumHigh, pool.NumLow, pool.Threshold
		config.ActivationProbability = rapid.Float64Range(0, 0.5).Draw(t, "activation")
		config.CombineWorkers = rapid.IntRange(0, 4).Draw(t, "workers")
		config.Seed = rapid.Uint64().Draw(t, "seed")

		report, err := latticesim.Run(context.Background(), config, latticesim.WithLogger(zap.NewNop()))
		if err != nil {
			var stageErr *latticesim.StageError
			chk.ErrorAs(err, &stageErr)
			chk.Equal(latticesim.StagePartition, stageErr.Stage)
			t.Skip("partitioning did not converge")
		}

		seen := make(map[int]int)
		var utilization float64
		for _, rt := range report.Trace() {
			var end float64
			for _, iv := range rt.Intervals {
				chk.Equal(end, iv.Start)
				chk.GreaterOrEqual(iv.End, iv.Start)
				end = iv.End
				seen[iv.Partition.Index]++
			}
			utilization = max(utilization, end)
		}
		for _, p := range report.Unassigned {
			seen[p.Index]++
		}
		chk.Len(seen, len(report.Partitions))
		for idx, n := range seen {
			chk.Equal(1, n, "partition %d", idx)
		}
		chk.Len(report.Tasks, len(report.Partitions)-report.UnassignableCount())
		chk.InDelta(report.MaxTimeTaken, utilization, 1e-15)
		chk.Equal(report.MaxTimeTaken+report.CombineLatency, report.TotalTime)
		chk.True(report.Combined.Equal(report.Grid.Full()))
		chk.GreaterOrEqual(report.NetAccuracy, 0.0)
		chk.LessOrEqual(report.NetAccuracy, partition.BaselineAccuracy)
	})
}
