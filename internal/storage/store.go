package storage

import (
	"context"

	"plegma/internal/model"
)

// Store defines persistence operations for folds, runs and their
// per-iteration traces.
type Store interface {
	Init(ctx context.Context) error
	SaveFold(ctx context.Context, fold model.FoldRecord) error
	GetFold(ctx context.Context, id string) (model.FoldRecord, bool, error)
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveTrace(ctx context.Context, runID string, trace []model.TraceStep) error
	GetTrace(ctx context.Context, runID string) ([]model.TraceStep, bool, error)
}
