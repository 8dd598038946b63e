// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command latticesim runs one lattice scheduling simulation and prints its
// report.
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	latticesim "github.com/petenewcomb/latticesim-go"
)

var VERSION = "dev"

func main() {
	defaults := latticesim.DefaultConfig()

	a := cli.NewApp()
	a.Name = "latticesim"
	a.Version = VERSION
	a.Usage = "simulate scheduling a partitioned grid onto heterogeneous resources"
	a.Flags = []cli.Flag{
		cli.IntFlag{Name: "rows", Value: defaults.Rows, Usage: "grid rows"},
		cli.IntFlag{Name: "cols", Value: defaults.Cols, Usage: "grid columns"},
		cli.IntFlag{Name: "partitions", Value: defaults.Partitions, Usage: "number of partitions"},
		cli.IntFlag{Name: "num-hr", Value: defaults.NumHigh, Usage: "number of unconstrained resources"},
		cli.IntFlag{Name: "num-lr", Value: defaults.NumLow, Usage: "number of capped resources"},
		cli.IntFlag{Name: "thresh-compl", Value: defaults.Threshold, Usage: "largest complexity a capped resource accepts"},
		cli.Float64Flag{Name: "time-limit", Value: defaults.TimeLimit, Usage: "simulated time limit in seconds"},
		cli.Uint64Flag{Name: "seed", Value: defaults.Seed, Usage: "random seed for complexity sampling"},
		cli.Float64Flag{Name: "activation", Value: defaults.ActivationProbability, Usage: "per-node activation probability"},
		cli.IntFlag{Name: "combine-workers", Usage: "concurrent merges; 0 means GOMAXPROCS"},
		cli.BoolFlag{Name: "debug, d", Usage: "enable debug logging level"},
		cli.BoolFlag{Name: "trace", Usage: "write OpenTelemetry spans to stderr"},
	}
	a.Action = run

	if err := a.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "latticesim: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	defer logger.Sync() //nolint:errcheck

	config := latticesim.DefaultConfig()
	config.Rows = c.Int("rows")
	config.Cols = c.Int("cols")
	config.Partitions = c.Int("partitions")
	config.NumHigh = c.Int("num-hr")
	config.NumLow = c.Int("num-lr")
	config.Threshold = c.Int("thresh-compl")
	config.TimeLimit = c.Float64("time-limit")
	config.Seed = c.Uint64("seed")
	config.ActivationProbability = c.Float64("activation")
	config.CombineWorkers = c.Int("combine-workers")

	ctx := context.Background()
	opts := []latticesim.Option{latticesim.WithLogger(logger)}
	if c.Bool("trace") {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return errors.Wrap(err, "creating trace exporter")
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer tp.Shutdown(ctx) //nolint:errcheck
		opts = append(opts, latticesim.WithTracerProvider(tp))
	}

	report, err := latticesim.Run(ctx, config, opts...)
	if err != nil {
		return err
	}
	return printReport(os.Stdout, report)
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func printReport(out io.Writer, report *latticesim.Report) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tCLASS\tLOAD\tPARTITIONS\tUTILIZATION")
	for _, r := range report.Resources {
		queue := r.Queue()
		ids := make([]string, len(queue))
		for i, p := range queue {
			ids[i] = strconv.Itoa(p.Index)
		}
		fmt.Fprintf(w, "%d\t%v\t%d\t[%s]\t%.3e\n", r.ID, r.Class(), r.Load(), strings.Join(ids, " "), r.Utilization())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nunassignable partitions: %d\n", report.UnassignableCount())
	fmt.Fprintf(out, "max time taken:          %.3e s\n", report.MaxTimeTaken)
	fmt.Fprintf(out, "combine latency:         %.3e s\n", report.CombineLatency)
	fmt.Fprintf(out, "total time:              %.3e s\n", report.TotalTime)
	fmt.Fprintf(out, "scheduling overhead:     %v\n", report.SchedulingOverhead)
	fmt.Fprintf(out, "net accuracy:            %.2f%%\n", report.NetAccuracy)
	if !math.IsInf(report.Config.TimeLimit, 1) {
		fmt.Fprintf(out, "time limit exceeded:     %v\n", report.LimitExceeded)
	}
	return nil
}
