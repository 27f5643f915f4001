// Package stats persists run artifacts on disk and aggregates trial scores
// into baseline summaries.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"plegma/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig records every knob a run was started with, so the run directory
// is reproducible from config.json alone. Algorithm-specific knobs are
// omitted when unused.
type RunConfig struct {
	RunID            string  `json:"run_id"`
	Algorithm        string  `json:"algorithm"`
	Sequence         string  `json:"sequence"`
	SequenceName     string  `json:"sequence_name,omitempty"`
	Dims             int     `json:"dims"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	Iterations       int     `json:"iterations,omitempty"`
	Window           int     `json:"window,omitempty"`
	MaxBacktracks    int     `json:"max_backtracks,omitempty"`
	MaxRestarts      int     `json:"max_restarts,omitempty"`
	MinSnippet       int     `json:"min_snippet,omitempty"`
	MaxSnippet       int     `json:"max_snippet,omitempty"`
	StartTemperature float64 `json:"start_temperature,omitempty"`
	CoolingRate      float64 `json:"cooling_rate,omitempty"`
	MinTemperature   float64 `json:"min_temperature,omitempty"`
}

type RunArtifacts struct {
	Config       RunConfig        `json:"config"`
	Fold         model.FoldRecord `json:"fold"`
	Run          model.RunRecord  `json:"run"`
	ScoreHistory []int            `json:"score_history,omitempty"`
}

// ScoreHistory is the per-iteration best score of a refinement run.
type ScoreHistory struct {
	ScoreByIteration []int `json:"score_by_iteration"`
	FinalScore       int   `json:"final_score"`
}

type RunIndexEntry struct {
	RunID        string `json:"run_id"`
	Algorithm    string `json:"algorithm"`
	Sequence     string `json:"sequence"`
	Dims         int    `json:"dims"`
	Seed         int64  `json:"seed"`
	Iterations   int    `json:"iterations"`
	Score        int    `json:"score"`
	CreatedAtUTC string `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "fold.json"), artifacts.Fold); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	history := ScoreHistory{ScoreByIteration: artifacts.ScoreHistory, FinalScore: artifacts.Run.Score}
	if err := writeJSON(filepath.Join(runDir, "score_history.json"), history); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	required := []string{"config.json", "fold.json", "run.json", "score_history.json"}
	for _, file := range required {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	optional := []string{"fold.csv", "trace.csv", "trace.csv.gz", "baseline.json", "score_series.csv", "fold.png", "score_history.png"}
	for _, file := range optional {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if err := copyFile(path, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func WriteRunConfig(baseDir, runID string, cfg RunConfig) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(cfg.RunID) == "" {
		cfg.RunID = strings.TrimSpace(runID)
	}
	if cfg.RunID != strings.TrimSpace(runID) {
		return fmt.Errorf("run config run id mismatch: got=%s want=%s", cfg.RunID, strings.TrimSpace(runID))
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, "config.json"), cfg)
}

func ReadScoreHistory(baseDir, runID string) (ScoreHistory, bool, error) {
	path := filepath.Join(baseDir, runID, "score_history.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ScoreHistory{}, false, nil
		}
		return ScoreHistory{}, false, err
	}

	var history ScoreHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return ScoreHistory{}, false, err
	}
	return history, true, nil
}

func ReadFoldRecord(baseDir, runID string) (model.FoldRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "fold.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.FoldRecord{}, false, nil
		}
		return model.FoldRecord{}, false, err
	}

	var fold model.FoldRecord
	if err := json.Unmarshal(data, &fold); err != nil {
		return model.FoldRecord{}, false, err
	}
	return fold, true, nil
}

// WriteScoreSeries writes the per-iteration scores as a two-column CSV next
// to the JSON history, for spreadsheet import.
func WriteScoreSeries(runDir string, scores []int) error {
	path := filepath.Join(runDir, "score_series.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"iteration", "score"}); err != nil {
		return err
	}
	for i, score := range scores {
		if err := writer.Write([]string{
			strconv.Itoa(i),
			strconv.Itoa(score),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadScoreSeries(baseDir, runID string) ([]int, bool, error) {
	path := filepath.Join(baseDir, runID, "score_series.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []int{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("score series header must have at least 2 columns")
	}

	series := make([]int, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("score series row must have at least 2 columns")
		}
		value, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
