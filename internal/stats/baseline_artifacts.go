package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const baselineExperimentsDir = "baselines"

// BaselineExperiment tracks a multi-trial baseline on disk so an
// interrupted run can be resumed at its trial index.
type BaselineExperiment struct {
	ID             string          `json:"id"`
	Notes          string          `json:"notes,omitempty"`
	ProgressFlag   string          `json:"progress_flag"`
	TrialIndex     int             `json:"trial_index"`
	TotalTrials    int             `json:"total_trials"`
	StartedAtUTC   string          `json:"started_at_utc,omitempty"`
	CompletedAtUTC string          `json:"completed_at_utc,omitempty"`
	Interruptions  []string        `json:"interruptions,omitempty"`
	Args           []string        `json:"args,omitempty"`
	Trials         []BaselineTrial `json:"trials,omitempty"`
}

func WriteBaselineExperiment(baseDir string, exp BaselineExperiment) error {
	if exp.ID == "" {
		return fmt.Errorf("experiment id is required")
	}
	path := baselineExperimentPath(baseDir, exp.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func ReadBaselineExperiment(baseDir, id string) (BaselineExperiment, bool, error) {
	if id == "" {
		return BaselineExperiment{}, false, fmt.Errorf("experiment id is required")
	}
	path := baselineExperimentPath(baseDir, id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BaselineExperiment{}, false, nil
		}
		return BaselineExperiment{}, false, err
	}
	var exp BaselineExperiment
	if err := json.Unmarshal(data, &exp); err != nil {
		return BaselineExperiment{}, false, err
	}
	return exp, true, nil
}

func ListBaselineExperiments(baseDir string) ([]BaselineExperiment, error) {
	root := filepath.Join(baseDir, baselineExperimentsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []BaselineExperiment{}, nil
		}
		return nil, err
	}

	exps := make([]BaselineExperiment, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		exp, ok, err := ReadBaselineExperiment(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		exps = append(exps, exp)
	}
	sort.Slice(exps, func(i, j int) bool {
		switch {
		case exps[i].StartedAtUTC == exps[j].StartedAtUTC:
			return exps[i].ID < exps[j].ID
		case exps[i].StartedAtUTC == "":
			return false
		case exps[j].StartedAtUTC == "":
			return true
		default:
			return exps[i].StartedAtUTC > exps[j].StartedAtUTC
		}
	})
	return exps, nil
}

func baselineExperimentPath(baseDir, id string) string {
	return filepath.Join(baseDir, baselineExperimentsDir, id, "experiment.json")
}
