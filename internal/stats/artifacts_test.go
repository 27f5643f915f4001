package stats

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"plegma/internal/model"
	"plegma/internal/storage"
)

func sampleArtifacts(runID, createdAt string, score int) RunArtifacts {
	version := model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
	return RunArtifacts{
		Config: RunConfig{
			RunID:      runID,
			Algorithm:  "hillclimb",
			Sequence:   "HHPH",
			Dims:       2,
			Seed:       7,
			Workers:    1,
			Iterations: 100,
		},
		Fold: model.FoldRecord{
			VersionedRecord: version,
			ID:              "fold-" + runID,
			Sequence:        "HHPH",
			Dims:            2,
			Moves:           "RUL",
			Folding:         []int{1, 2, -1, 0},
			Score:           score,
		},
		Run: model.RunRecord{
			VersionedRecord: version,
			ID:              runID,
			Algorithm:       "hillclimb",
			Sequence:        "HHPH",
			Dims:            2,
			Seed:            7,
			Iterations:      100,
			Score:           score,
			FoldID:          "fold-" + runID,
			CreatedAtUTC:    createdAt,
		},
		ScoreHistory: []int{0, 0, score},
	}
}

func TestWriteAndReadRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts("hillclimb-7-aaaa1111", "2026-01-12T09:30:00Z", -1)

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("WriteRunArtifacts: %v", err)
	}
	for _, file := range []string{"config.json", "fold.json", "run.json", "score_history.json"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("missing %s: %v", file, err)
		}
	}

	cfg, ok, err := ReadRunConfig(baseDir, artifacts.Config.RunID)
	if err != nil || !ok {
		t.Fatalf("ReadRunConfig: ok=%v err=%v", ok, err)
	}
	if cfg != artifacts.Config {
		t.Fatalf("config = %+v, want %+v", cfg, artifacts.Config)
	}

	history, ok, err := ReadScoreHistory(baseDir, artifacts.Config.RunID)
	if err != nil || !ok {
		t.Fatalf("ReadScoreHistory: ok=%v err=%v", ok, err)
	}
	if history.FinalScore != -1 || !reflect.DeepEqual(history.ScoreByIteration, []int{0, 0, -1}) {
		t.Fatalf("history = %+v", history)
	}

	fold, ok, err := ReadFoldRecord(baseDir, artifacts.Config.RunID)
	if err != nil || !ok {
		t.Fatalf("ReadFoldRecord: ok=%v err=%v", ok, err)
	}
	if fold.Moves != "RUL" || fold.Score != -1 {
		t.Fatalf("fold = %+v", fold)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestReadRunConfigMissing(t *testing.T) {
	cfg, ok, err := ReadRunConfig(t.TempDir(), "absent")
	if err != nil {
		t.Fatalf("ReadRunConfig: %v", err)
	}
	if ok || cfg.RunID != "" {
		t.Fatalf("expected a miss, got ok=%v cfg=%+v", ok, cfg)
	}
}

func TestRunIndexSortsNewestFirst(t *testing.T) {
	baseDir := t.TempDir()
	entries := []RunIndexEntry{
		{RunID: "run-a", Algorithm: "anneal", Score: -3, CreatedAtUTC: "2026-01-10T00:00:00Z"},
		{RunID: "run-b", Algorithm: "hillclimb", Score: -2, CreatedAtUTC: "2026-01-12T00:00:00Z"},
		{RunID: "run-c", Algorithm: "beam", Score: -4, CreatedAtUTC: "2026-01-11T00:00:00Z"},
	}
	for _, entry := range entries {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("AppendRunIndex(%s): %v", entry.RunID, err)
		}
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("ListRunIndex: %v", err)
	}
	got := []string{index[0].RunID, index[1].RunID, index[2].RunID}
	want := []string{"run-b", "run-c", "run-a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestAppendRunIndexReplacesExistingEntry(t *testing.T) {
	baseDir := t.TempDir()
	entry := RunIndexEntry{RunID: "run-a", Score: -1, CreatedAtUTC: "2026-01-10T00:00:00Z"}
	if err := AppendRunIndex(baseDir, entry); err != nil {
		t.Fatalf("AppendRunIndex: %v", err)
	}
	entry.Score = -5
	if err := AppendRunIndex(baseDir, entry); err != nil {
		t.Fatalf("AppendRunIndex update: %v", err)
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("ListRunIndex: %v", err)
	}
	if len(index) != 1 || index[0].Score != -5 {
		t.Fatalf("index = %+v, want one entry with score -5", index)
	}
}

func TestExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts("hillclimb-7-bbbb2222", "2026-01-12T10:00:00Z", -1)
	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("WriteRunArtifacts: %v", err)
	}
	if err := WriteScoreSeries(runDir, artifacts.ScoreHistory); err != nil {
		t.Fatalf("WriteScoreSeries: %v", err)
	}

	outDir := t.TempDir()
	dst, err := ExportRunArtifacts(baseDir, artifacts.Config.RunID, outDir)
	if err != nil {
		t.Fatalf("ExportRunArtifacts: %v", err)
	}
	for _, file := range []string{"config.json", "fold.json", "run.json", "score_history.json", "score_series.csv"} {
		if _, err := os.Stat(filepath.Join(dst, file)); err != nil {
			t.Fatalf("missing exported %s: %v", file, err)
		}
	}
	// Optional artifacts that were never written must not appear.
	if _, err := os.Stat(filepath.Join(dst, "trace.csv")); !os.IsNotExist(err) {
		t.Fatalf("unexpected trace.csv in export: %v", err)
	}
}

func TestExportRunArtifactsUnknownRun(t *testing.T) {
	if _, err := ExportRunArtifacts(t.TempDir(), "absent", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestScoreSeriesRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	runDir := filepath.Join(baseDir, "run-a")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	scores := []int{0, -1, -1, -3}
	if err := WriteScoreSeries(runDir, scores); err != nil {
		t.Fatalf("WriteScoreSeries: %v", err)
	}

	got, ok, err := ReadScoreSeries(baseDir, "run-a")
	if err != nil || !ok {
		t.Fatalf("ReadScoreSeries: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, scores) {
		t.Fatalf("series = %v, want %v", got, scores)
	}

	if _, ok, err := ReadScoreSeries(baseDir, "absent"); err != nil || ok {
		t.Fatalf("expected a miss, got ok=%v err=%v", ok, err)
	}
}
