package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dsfilter/internal/config"
	"dsfilter/internal/countryrules"
	"dsfilter/pkg/contracts/domain"
)

// Runner executes the cleaning sequence. Stages run strictly one after
// another; only the per-country fan-out inside a stage is concurrent.
type Runner struct {
	registry *Registry
	rules    *countryrules.Table
	config   *config.Config
	logger   *slog.Logger
	tracer   *RunTracer
}

// Result is the output of one pipeline run.
type Result struct {
	RunID   string
	Panel   domain.Panel
	Statics domain.Statics

	// PennyThresholds maps YYYY-MM month keys to the penny-stock price
	// threshold applied in that month.
	PennyThresholds map[string]float64

	Reports []StageReport
}

// NewRunner builds a runner with the full stage sequence for cfg. A nil
// logger falls back to slog.Default.
func NewRunner(cfg *config.Config, rules *countryrules.Table, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if rules == nil {
		return nil, fmt.Errorf("country rule table is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	stages, err := BuildStages(cfg)
	if err != nil {
		return nil, fmt.Errorf("build stages: %w", err)
	}
	registry := NewRegistry()
	for _, s := range stages {
		if err := registry.Register(s); err != nil {
			return nil, fmt.Errorf("register stage: %w", err)
		}
	}

	tracer, err := NewRunTracer()
	if err != nil {
		return nil, fmt.Errorf("create run tracer: %w", err)
	}

	return &Runner{
		registry: registry,
		rules:    rules,
		config:   cfg,
		logger:   logger,
		tracer:   tracer,
	}, nil
}

// StageIDs returns the IDs of the stages the runner will execute, in order.
func (r *Runner) StageIDs() []string {
	return r.registry.ListIDs()
}

// Run threads the panel and statics through every stage in order. The input
// slices are not modified. An empty panel is valid and flows through every
// stage unchanged. The first stage error aborts the run.
func (r *Runner) Run(ctx context.Context, panel domain.Panel, statics domain.Statics) (*Result, error) {
	runID := uuid.New().String()
	start := time.Now()

	st := &State{
		Panel:   append(domain.Panel(nil), panel...),
		Statics: append(domain.Statics(nil), statics...),
		Rules:   r.rules,
		Config:  r.config,
	}

	ctx, span := r.tracer.TraceRun(ctx, runID, len(st.Panel), len(st.Statics))
	defer span.End()

	r.logger.InfoContext(ctx, "run_start",
		slog.String("run_id", runID),
		slog.Int("rows_in", len(st.Panel)),
		slog.Int("securities_in", len(st.Statics)),
		slog.Int("stages", r.registry.Count()))

	for _, stage := range r.registry.List() {
		if err := ctx.Err(); err != nil {
			r.tracer.RecordRunCompletion(ctx, span, time.Since(start), len(st.Panel), len(st.Statics), err)
			return nil, fmt.Errorf("run %s canceled before stage %s: %w", runID, stage.ID(), err)
		}
		if err := r.runStage(ctx, runID, stage, st); err != nil {
			r.tracer.RecordRunCompletion(ctx, span, time.Since(start), len(st.Panel), len(st.Statics), err)
			r.logger.ErrorContext(ctx, "run_error",
				slog.String("run_id", runID),
				slog.String("stage_id", stage.ID()),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("stage %s: %w", stage.ID(), err)
		}
	}

	duration := time.Since(start)
	r.tracer.RecordRunCompletion(ctx, span, duration, len(st.Panel), len(st.Statics), nil)
	r.logger.InfoContext(ctx, "run_complete",
		slog.String("run_id", runID),
		slog.Int("rows_out", len(st.Panel)),
		slog.Int("securities_out", len(st.Statics)),
		slog.Duration("duration", duration))

	return &Result{
		RunID:           runID,
		Panel:           st.Panel,
		Statics:         st.Statics,
		PennyThresholds: st.PennyThresholds,
		Reports:         st.Reports,
	}, nil
}

func (r *Runner) runStage(ctx context.Context, runID string, stage Stage, st *State) error {
	report := StageReport{
		StageID:      stage.ID(),
		RowsIn:       len(st.Panel),
		SecuritiesIn: len(st.Statics),
	}

	stageCtx, span := r.tracer.TraceStage(ctx, runID, stage.ID())
	defer span.End()

	start := time.Now()
	err := stage.Execute(stageCtx, st)
	report.Duration = time.Since(start)
	report.RowsOut = len(st.Panel)
	report.SecuritiesOut = len(st.Statics)

	r.tracer.RecordStageCompletion(stageCtx, span, report, err)
	if err != nil {
		return err
	}

	st.Reports = append(st.Reports, report)
	r.logger.InfoContext(stageCtx, "stage_complete",
		slog.String("run_id", runID),
		slog.String("stage_id", stage.ID()),
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("securities_out", report.SecuritiesOut),
		slog.Float64("removed_fraction", report.RemovedFraction()),
		slog.Duration("duration", report.Duration))
	return nil
}
