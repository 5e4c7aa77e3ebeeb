package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "dsfilter.pipeline"
	MeterName  = "dsfilter.pipeline"
)

// RunTracer provides OpenTelemetry instrumentation for pipeline runs.
type RunTracer struct {
	tracer trace.Tracer
	meter  metric.Meter

	stageExecutions metric.Int64Counter
	stageDuration   metric.Float64Histogram
	stageRemoved    metric.Float64Histogram
	runsTotal       metric.Int64Counter
}

// NewRunTracer creates a tracer backed by the global otel providers.
func NewRunTracer() (*RunTracer, error) {
	meter := otel.Meter(MeterName)

	stageExecutions, err := meter.Int64Counter("pipeline_stage_executions_total",
		metric.WithDescription("Total stage executions by stage and status"))
	if err != nil {
		return nil, fmt.Errorf("create stage execution counter: %w", err)
	}
	stageDuration, err := meter.Float64Histogram("pipeline_stage_duration_seconds",
		metric.WithDescription("Stage execution duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create stage duration histogram: %w", err)
	}
	stageRemoved, err := meter.Float64Histogram("pipeline_stage_removed_fraction",
		metric.WithDescription("Fraction of panel rows removed per stage"))
	if err != nil {
		return nil, fmt.Errorf("create stage removal histogram: %w", err)
	}
	runsTotal, err := meter.Int64Counter("pipeline_runs_total",
		metric.WithDescription("Total pipeline runs by status"))
	if err != nil {
		return nil, fmt.Errorf("create run counter: %w", err)
	}

	return &RunTracer{
		tracer:          otel.Tracer(TracerName),
		meter:           meter,
		stageExecutions: stageExecutions,
		stageDuration:   stageDuration,
		stageRemoved:    stageRemoved,
		runsTotal:       runsTotal,
	}, nil
}

// TraceRun starts the span covering one full pipeline run.
func (rt *RunTracer) TraceRun(ctx context.Context, runID string, rows, securities int) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.rows_in", rows),
			attribute.Int("run.securities_in", securities),
		),
	)
}

// TraceStage starts the span for one stage execution.
func (rt *RunTracer) TraceStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	ctx, span := rt.tracer.Start(ctx, "pipeline.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
	return ctx, span
}

// RecordStageCompletion annotates the stage span and records stage metrics.
func (rt *RunTracer) RecordStageCompletion(ctx context.Context, span trace.Span, report StageReport, err error) {
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.Int("stage.rows_in", report.RowsIn),
		attribute.Int("stage.rows_out", report.RowsOut),
		attribute.Int("stage.securities_in", report.SecuritiesIn),
		attribute.Int("stage.securities_out", report.SecuritiesOut),
		attribute.Float64("stage.removed_fraction", report.RemovedFraction()),
		attribute.Float64("stage.duration_seconds", report.Duration.Seconds()),
	)

	attrs := metric.WithAttributes(
		attribute.String("stage_id", report.StageID),
		attribute.String("status", status),
	)
	rt.stageExecutions.Add(ctx, 1, attrs)
	rt.stageDuration.Record(ctx, report.Duration.Seconds(), attrs)
	if err == nil {
		rt.stageRemoved.Record(ctx, report.RemovedFraction(),
			metric.WithAttributes(attribute.String("stage_id", report.StageID)))
	}
}

// RecordRunCompletion annotates the run span and records run metrics.
func (rt *RunTracer) RecordRunCompletion(ctx context.Context, span trace.Span, duration time.Duration, rows, securities int, err error) {
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(
		attribute.String("run.status", status),
		attribute.Float64("run.duration_seconds", duration.Seconds()),
		attribute.Int("run.rows_out", rows),
		attribute.Int("run.securities_out", securities),
	)

	rt.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
