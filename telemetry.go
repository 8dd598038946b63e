// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package latticesim

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/petenewcomb/latticesim-go"

// Option customizes the ambient services used by [Run].
type Option func(*options)

type options struct {
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithLogger directs run progress to logger. The default discards it.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider overrides the global OpenTelemetry meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}
	return o
}

// instruments holds the per-run metric instruments. Instrument creation
// errors leave a nil instrument, which the record helpers skip.
type instruments struct {
	runs            metric.Int64Counter
	unassigned      metric.Int64Counter
	tasks           metric.Int64Counter
	processingTime  metric.Float64Histogram
	combineLatency  metric.Float64Histogram
	schedulingDelay metric.Float64Histogram
}

func newInstruments(mp metric.MeterProvider, logger *zap.Logger) *instruments {
	meter := mp.Meter(instrumentationName)
	ins := &instruments{}
	var errs []error
	note := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error
	ins.runs, err = meter.Int64Counter("latticesim.runs",
		metric.WithDescription("Completed simulation runs"))
	note(err)
	ins.unassigned, err = meter.Int64Counter("latticesim.partitions.unassigned",
		metric.WithDescription("Partitions no resource could accept"))
	note(err)
	ins.tasks, err = meter.Int64Counter("latticesim.tasks",
		metric.WithDescription("Partitions executed, by resource class"))
	note(err)
	ins.processingTime, err = meter.Float64Histogram("latticesim.task.processing_time",
		metric.WithDescription("Estimated per-partition processing time"),
		metric.WithUnit("s"))
	note(err)
	ins.combineLatency, err = meter.Float64Histogram("latticesim.combine.latency",
		metric.WithDescription("Estimated boundary reconciliation latency"),
		metric.WithUnit("s"))
	note(err)
	ins.schedulingDelay, err = meter.Float64Histogram("latticesim.schedule.overhead",
		metric.WithDescription("Wall-clock time spent scheduling"),
		metric.WithUnit("s"))
	note(err)
	for _, err := range errs {
		logger.Warn("metric instrument unavailable", zap.Error(err))
	}
	return ins
}

func (ins *instruments) record(ctx context.Context, report *Report) {
	if ins.runs != nil {
		ins.runs.Add(ctx, 1, metric.WithAttributes(attribute.Bool("limit_exceeded", report.LimitExceeded)))
	}
	if ins.unassigned != nil {
		ins.unassigned.Add(ctx, int64(report.UnassignableCount()))
	}
	for _, task := range report.Tasks {
		class := metric.WithAttributes(attribute.String("class", task.Class.String()))
		if ins.tasks != nil {
			ins.tasks.Add(ctx, 1, class)
		}
		if ins.processingTime != nil {
			ins.processingTime.Record(ctx, task.ProcessingTime, class)
		}
	}
	if ins.combineLatency != nil {
		ins.combineLatency.Record(ctx, report.CombineLatency)
	}
	if ins.schedulingDelay != nil {
		ins.schedulingDelay.Record(ctx, report.SchedulingOverhead.Seconds())
	}
}

// endSpan records err, if any, on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
