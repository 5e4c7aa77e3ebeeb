package pipeline

import (
	"context"
	"time"

	"dsfilter/internal/config"
	"dsfilter/internal/countryrules"
	"dsfilter/pkg/contracts/domain"
)

// State is the snapshot handed from stage to stage. Stages replace the Panel
// and Statics slices wholesale; they never mutate the previous snapshot's
// backing data, so a reference taken before a stage stays valid after it.
type State struct {
	Panel   domain.Panel
	Statics domain.Statics

	Rules  *countryrules.Table
	Config *config.Config

	// PennyThresholds is the per-month penny-stock threshold series, recorded
	// by the penny-stock stage as a side output.
	PennyThresholds map[string]float64

	Reports []StageReport
}

// StageReport captures one stage's attrition for post-hoc auditing.
type StageReport struct {
	StageID       string        `json:"stage_id"`
	RowsIn        int           `json:"rows_in"`
	RowsOut       int           `json:"rows_out"`
	SecuritiesIn  int           `json:"securities_in"`
	SecuritiesOut int           `json:"securities_out"`
	Duration      time.Duration `json:"duration"`
}

// RemovedFraction returns the fraction of panel rows the stage removed.
// Zero rows in means zero removed.
func (r StageReport) RemovedFraction() float64 {
	if r.RowsIn == 0 {
		return 0
	}
	return 1 - float64(r.RowsOut)/float64(r.RowsIn)
}

// Stage is one step of the cleaning sequence.
type Stage interface {
	// ID returns the stable machine identifier of the stage.
	ID() string
	// Name returns the human-readable stage name.
	Name() string
	// Execute transforms the state in place. Only configuration errors are
	// returned; data-quality anomalies are handled inside the stage.
	Execute(ctx context.Context, st *State) error
}

type funcStage struct {
	id   string
	name string
	fn   func(ctx context.Context, st *State) error
}

// NewStage wraps a function as a Stage.
func NewStage(id, name string, fn func(ctx context.Context, st *State) error) Stage {
	return &funcStage{id: id, name: name, fn: fn}
}

func (s *funcStage) ID() string   { return s.id }
func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Execute(ctx context.Context, st *State) error {
	return s.fn(ctx, st)
}
