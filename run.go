// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package latticesim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/petenewcomb/latticesim-go/combine"
	"github.com/petenewcomb/latticesim-go/internal/psg"
	"github.com/petenewcomb/latticesim-go/lattice"
	"github.com/petenewcomb/latticesim-go/partition"
	"github.com/petenewcomb/latticesim-go/resource"
	"github.com/petenewcomb/latticesim-go/schedule"
)

// Run partitions a grid, schedules the partitions onto a resource pool,
// executes every resource's queue and combines the partitions back into one
// lattice, all as described by config.
//
// Each resource executes in its own goroutine while the combine stage runs
// concurrently with them. Partition accuracy is the only state shared between
// stages and only the executing resource writes it.
//
// Errors are returned as *[StageError]. A run whose total time exceeds
// config.TimeLimit still succeeds with [Report.LimitExceeded] set.
func Run(ctx context.Context, config Config, opts ...Option) (*Report, error) {
	o := newOptions(opts)
	logger := o.logger
	tracer := o.tracerProvider.Tracer(instrumentationName)

	ctx, span := tracer.Start(ctx, "latticesim.run", trace.WithAttributes(
		attribute.Int("rows", config.Rows),
		attribute.Int("cols", config.Cols),
		attribute.Int("partitions", config.Partitions),
		attribute.Int("num_hr", config.NumHigh),
		attribute.Int("num_lr", config.NumLow),
		attribute.Int("thresh_compl", config.Threshold),
		attribute.Int64("seed", int64(config.Seed)),
	))
	report, err := run(ctx, config, tracer, logger)
	endSpan(span, err)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return nil, err
	}
	newInstruments(o.meterProvider, logger).record(ctx, report)
	return report, nil
}

func run(ctx context.Context, config Config, tracer trace.Tracer, logger *zap.Logger) (*Report, error) {
	if err := config.Validate(); err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err}
	}
	grid, err := lattice.NewGrid(config.Rows, config.Cols)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Entity: "grid", Err: errors.Wrapf(ErrConfiguration, "%v", err)}
	}
	report := &Report{
		Config: config,
		Grid:   grid,
	}

	if err := partitionStage(ctx, report, tracer, logger); err != nil {
		return nil, err
	}
	if err := scheduleStage(ctx, report, tracer, logger); err != nil {
		return nil, err
	}
	if err := executeAndCombine(ctx, report, tracer, logger); err != nil {
		return nil, err
	}
	summarize(report, logger)
	return report, nil
}

func partitionStage(ctx context.Context, report *Report, tracer trace.Tracer, logger *zap.Logger) error {
	config := &report.Config
	_, span := tracer.Start(ctx, "latticesim.partition")
	rng := rand.New(rand.NewPCG(config.Seed, config.Seed))
	partitioner := partition.New(config.partitionConfig(), rng, logger)
	parts, err := partitioner.Partition(report.Grid, config.Partitions)
	if err != nil {
		err = &StageError{
			Stage:  StagePartition,
			Entity: fmt.Sprintf("%dx%d grid into %d partitions", config.Rows, config.Cols, config.Partitions),
			Err:    err,
		}
		endSpan(span, err)
		return err
	}
	span.SetAttributes(attribute.Int("partitions", len(parts)))
	endSpan(span, nil)
	report.Partitions = parts
	logger.Debug("partitioned grid",
		zap.Int("rows", config.Rows),
		zap.Int("cols", config.Cols),
		zap.Int("partitions", len(parts)))
	return nil
}

func scheduleStage(ctx context.Context, report *Report, tracer trace.Tracer, logger *zap.Logger) error {
	_, span := tracer.Start(ctx, "latticesim.schedule")
	pool, err := resource.NewPool(report.Config.poolConfig())
	if err != nil {
		err = &StageError{Stage: StageSchedule, Entity: "resource pool", Err: errors.Wrap(err, "building pool")}
		endSpan(span, err)
		return err
	}
	start := time.Now()
	result, err := schedule.Schedule(report.Partitions, pool.High, pool.Low, logger)
	report.SchedulingOverhead = time.Since(start)
	if err != nil {
		err = &StageError{Stage: StageSchedule, Entity: "low-capability tier", Err: err}
		endSpan(span, err)
		return err
	}
	report.Resources = result.Resources
	report.Unassigned = result.Unassigned
	logger.Debug("scheduled partitions",
		zap.Int("resources", len(pool.All())),
		zap.Int("unassigned", result.UnassignableCount()),
		zap.Duration("overhead", report.SchedulingOverhead))
	span.SetAttributes(
		attribute.Int("unassigned", result.UnassignableCount()),
		attribute.Int64("overhead_ns", report.SchedulingOverhead.Nanoseconds()),
	)
	endSpan(span, nil)
	return nil
}

// executeAndCombine executes each resource in its own task and combines the
// partition node sets in another, gathering every result on this goroutine.
func executeAndCombine(ctx context.Context, report *Report, tracer trace.Tracer, logger *zap.Logger) error {
	config := &report.Config
	ctx, span := tracer.Start(ctx, "latticesim.execute")

	// Node sets never change after partitioning, so the combine task can
	// read them while resources update partition accuracy.
	subgraphs := make([]*lattice.Subgraph, len(report.Partitions))
	for i, p := range report.Partitions {
		subgraphs[i] = p.Nodes
	}

	job := psg.NewJob(ctx)
	defer job.CancelAndWait()
	pool := psg.NewTaskPool(job, -1)

	tasksByResource := make([][]resource.Task, len(report.Resources))
	for i, r := range report.Resources {
		gather := psg.NewGather(func(ctx context.Context, tasks []resource.Task, err error) error {
			if err != nil {
				return &StageError{Stage: StageExecute, Entity: fmt.Sprintf("resource %d", r.ID), Err: err}
			}
			tasksByResource[i] = tasks
			logger.Debug("resource executed",
				zap.Stringer("resource", r),
				zap.Int("tasks", len(tasks)),
				zap.Float64("utilization", r.Utilization()))
			return nil
		})
		err := gather.Scatter(ctx, pool, func(ctx context.Context) ([]resource.Task, error) {
			return r.Execute(), nil
		})
		if err != nil {
			err = &StageError{Stage: StageExecute, Entity: fmt.Sprintf("resource %d", r.ID), Err: err}
			endSpan(span, err)
			return err
		}
	}

	combineGather := psg.NewGather(func(ctx context.Context, res *combine.Result, err error) error {
		if err != nil {
			return &StageError{Stage: StageCombine, Entity: fmt.Sprintf("%d partitions", len(subgraphs)), Err: err}
		}
		if !res.Lattice.Equal(report.Grid.Full()) {
			return &StageError{
				Stage:  StageCombine,
				Entity: fmt.Sprintf("%d partitions", len(subgraphs)),
				Err:    errors.Errorf("combined lattice has %d of %d nodes", res.Lattice.Len(), report.Grid.Len()),
			}
		}
		report.Combined = res.Lattice
		report.CombineLatency = res.Latency
		report.CombineRounds = res.Rounds
		return nil
	})
	err := combineGather.Scatter(ctx, pool, func(ctx context.Context) (*combine.Result, error) {
		ctx, span := tracer.Start(ctx, "latticesim.combine")
		res, err := combine.Combine(ctx, subgraphs, report.Grid, combine.Config{
			Workers:         config.CombineWorkers,
			BoundaryLatency: config.BoundaryLatency,
			Logger:          logger,
		})
		if err == nil {
			span.SetAttributes(
				attribute.Int("rounds", res.Rounds),
				attribute.Int("merges", res.Merges),
				attribute.Float64("latency", res.Latency),
			)
		}
		endSpan(span, err)
		return res, err
	})
	if err != nil {
		err = &StageError{Stage: StageCombine, Err: err}
		endSpan(span, err)
		return err
	}

	if err := job.CloseAndGatherAll(ctx); err != nil {
		endSpan(span, err)
		return err
	}
	for _, tasks := range tasksByResource {
		report.Tasks = append(report.Tasks, tasks...)
	}
	span.SetAttributes(attribute.Int("tasks", len(report.Tasks)))
	endSpan(span, nil)
	return nil
}

// summarize derives the aggregate timing and accuracy figures.
func summarize(report *Report, logger *zap.Logger) {
	config := &report.Config
	report.MaxTimeTaken = resource.MaxTimeTaken(report.Resources)
	report.TotalTime = report.MaxTimeTaken + report.CombineLatency

	if len(report.Tasks) > 0 {
		var sum float64
		for _, task := range report.Tasks {
			sum += task.Accuracy
		}
		report.NetAccuracy = min(sum/float64(len(report.Tasks)), partition.BaselineAccuracy)
	}

	for _, r := range report.Resources {
		if r.Utilization() > config.TimeLimit {
			report.ExceededResources = append(report.ExceededResources, r)
			logger.Warn("resource exceeded time limit",
				zap.Stringer("resource", r),
				zap.Float64("utilization", r.Utilization()),
				zap.Float64("time_limit", config.TimeLimit))
		}
	}
	report.LimitExceeded = report.TotalTime > config.TimeLimit
	if report.LimitExceeded {
		logger.Warn("time limit exceeded",
			zap.Float64("total_time", report.TotalTime),
			zap.Float64("time_limit", config.TimeLimit),
			zap.Int("resources_over_limit", len(report.ExceededResources)))
	}
	logger.Info("run complete",
		zap.Int("partitions", len(report.Partitions)),
		zap.Int("unassigned", report.UnassignableCount()),
		zap.Float64("max_time_taken", report.MaxTimeTaken),
		zap.Float64("combine_latency", report.CombineLatency),
		zap.Float64("net_accuracy", report.NetAccuracy),
		zap.Duration("scheduling_overhead", report.SchedulingOverhead))
}
