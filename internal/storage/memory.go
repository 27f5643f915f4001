package storage

import (
	"context"
	"sort"
	"sync"

	"plegma/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	folds       map[string]model.FoldRecord
	runs        map[string]model.RunRecord
	traces      map[string][]model.TraceStep
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.folds = make(map[string]model.FoldRecord)
	s.runs = make(map[string]model.RunRecord)
	s.traces = make(map[string][]model.TraceStep)
	return nil
}

func (s *MemoryStore) SaveFold(_ context.Context, fold model.FoldRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := fold
	copied.Folding = append([]int(nil), fold.Folding...)
	s.folds[fold.ID] = copied
	return nil
}

func (s *MemoryStore) GetFold(_ context.Context, id string) (model.FoldRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold, ok := s.folds[id]
	if !ok {
		return model.FoldRecord{}, false, nil
	}
	copied := fold
	copied.Folding = append([]int(nil), fold.Folding...)
	return copied, true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	// Newest first; timestamps are RFC3339 so string order is time order.
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
	return runs, nil
}

func (s *MemoryStore) SaveTrace(_ context.Context, runID string, trace []model.TraceStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.TraceStep, len(trace))
	copy(copied, trace)
	s.traces[runID] = copied
	return nil
}

func (s *MemoryStore) GetTrace(_ context.Context, runID string) ([]model.TraceStep, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace, ok := s.traces[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.TraceStep, len(trace))
	copy(copied, trace)
	return copied, true, nil
}
