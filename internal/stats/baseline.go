package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"plegma/internal/model"
	"plegma/internal/storage"
)

// BaselineTrial is the outcome of one independent trial.
type BaselineTrial struct {
	Trial   int   `json:"trial"`
	Seed    int64 `json:"seed"`
	Score   int   `json:"score"`
	Success bool  `json:"success"`
}

// BaselineReport aggregates repeated trials of one algorithm on one
// sequence. A trial succeeds when it reaches the target score; without a
// target every trial counts as a success.
type BaselineReport struct {
	Summary     model.BaselineRecord `json:"summary"`
	TargetScore *int                 `json:"target_score,omitempty"`
	SuccessRate float64              `json:"success_rate"`
	GeneratedAt string               `json:"generated_at_utc"`
	Trials      []BaselineTrial      `json:"trials"`
}

// Summarize aggregates final trial scores into a baseline record.
func Summarize(algorithm, sequence string, dims int, scores []int) (model.BaselineRecord, error) {
	if len(scores) == 0 {
		return model.BaselineRecord{}, fmt.Errorf("baseline needs at least one trial score")
	}

	values := make([]float64, len(scores))
	for i, score := range scores {
		values[i] = float64(score)
	}

	record := model.BaselineRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		Algorithm: algorithm,
		Sequence:  sequence,
		Dims:      dims,
		Trials:    len(scores),
		MeanScore: stat.Mean(values, nil),
		MinScore:  int(floats.Min(values)),
		MaxScore:  int(floats.Max(values)),
	}
	if len(values) > 1 {
		record.StdScore = stat.StdDev(values, nil)
	}
	return record, nil
}

func BuildBaselineReport(summary model.BaselineRecord, trials []BaselineTrial, targetScore *int) BaselineReport {
	report := BaselineReport{
		Summary:     summary,
		TargetScore: cloneIntPtr(targetScore),
		Trials:      make([]BaselineTrial, 0, len(trials)),
	}
	successes := 0
	for _, trial := range trials {
		trial.Success = targetScore == nil || trial.Score <= *targetScore
		if trial.Success {
			successes++
		}
		report.Trials = append(report.Trials, trial)
	}
	if len(report.Trials) > 0 {
		report.SuccessRate = float64(successes) / float64(len(report.Trials))
	}
	return report
}

func WriteBaselineReport(runDir string, report BaselineReport) error {
	if report.GeneratedAt == "" {
		report.GeneratedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return writeJSON(filepath.Join(runDir, "baseline.json"), report)
}

func ReadBaselineReport(baseDir, runID string) (BaselineReport, bool, error) {
	path := filepath.Join(baseDir, runID, "baseline.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BaselineReport{}, false, nil
		}
		return BaselineReport{}, false, err
	}

	var report BaselineReport
	if err := json.Unmarshal(data, &report); err != nil {
		return BaselineReport{}, false, err
	}
	return report, true, nil
}

func WriteBaselineCSV(path string, trials []BaselineTrial) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"trial", "seed", "score", "success"}); err != nil {
		return err
	}
	for _, trial := range trials {
		if err := writer.Write([]string{
			strconv.Itoa(trial.Trial),
			strconv.FormatInt(trial.Seed, 10),
			strconv.Itoa(trial.Score),
			strconv.FormatBool(trial.Success),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
