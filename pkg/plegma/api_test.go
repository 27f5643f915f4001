package plegma

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plegma/internal/foldio"
	"plegma/internal/stats"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "memory",
		RunsDir:    filepath.Join(base, "runs"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func TestClientFoldRunsAndExport(t *testing.T) {
	client, _ := newTestClient(t)

	summary, err := client.Fold(context.Background(), FoldRequest{
		Sequence:   "hp14",
		Algorithm:  "hillclimb",
		Iterations: 8,
		Seed:       42,
		Workers:    2,
	})
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if summary.Algorithm != "hillclimb" {
		t.Fatalf("unexpected algorithm: %s", summary.Algorithm)
	}
	if summary.Sequence != "HHPHHHPHPHHHPH" {
		t.Fatalf("expected hp14 to resolve to its residue string, got %s", summary.Sequence)
	}
	if len(summary.Folding) != 14 {
		t.Fatalf("unexpected folding length: %d", len(summary.Folding))
	}
	if summary.Iterations != 8 {
		t.Fatalf("unexpected iteration count: %d", summary.Iterations)
	}
	if summary.Score > 0 {
		t.Fatalf("unexpected positive score: %d", summary.Score)
	}

	runs, err := client.Runs(context.Background(), RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) == 0 || runs[0].RunID != summary.RunID {
		t.Fatalf("expected latest run %s in runs list: %+v", summary.RunID, runs)
	}

	steps, err := client.Trace(context.Background(), TraceRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(steps) != 8 {
		t.Fatalf("expected one trace step per iteration, got %d", len(steps))
	}
	limited, err := client.Trace(context.Background(), TraceRequest{RunID: summary.RunID, Limit: 3})
	if err != nil {
		t.Fatalf("limited trace: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected limited trace length 3, got %d", len(limited))
	}

	exported, err := client.Export(context.Background(), ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export latest: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("exported run mismatch: got=%s want=%s", exported.RunID, summary.RunID)
	}
	for _, file := range []string{"config.json", "fold.json", "run.json", "score_history.json", "fold.csv", "score_series.csv"} {
		if _, err := os.Stat(filepath.Join(exported.Directory, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}

	configData, err := os.ReadFile(filepath.Join(summary.ArtifactsDir, "config.json"))
	if err != nil {
		t.Fatalf("read config artifact: %v", err)
	}
	var config stats.RunConfig
	if err := json.Unmarshal(configData, &config); err != nil {
		t.Fatalf("decode config artifact: %v", err)
	}
	if config.Algorithm != "hillclimb" || config.SequenceName != "hp14" {
		t.Fatalf("unexpected config artifact: %+v", config)
	}
}

func TestClientFoldDefaultsToBeamSearch(t *testing.T) {
	client, _ := newTestClient(t)

	summary, err := client.Fold(context.Background(), FoldRequest{
		Sequence: "HPPHHP",
		Seed:     7,
	})
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if summary.Algorithm != "beam" {
		t.Fatalf("expected beam default, got %s", summary.Algorithm)
	}
	if summary.Dims != 2 {
		t.Fatalf("expected 2d default, got %d", summary.Dims)
	}
	if len(summary.Moves) != 5 {
		t.Fatalf("expected 5 moves for a 6 residue chain, got %q", summary.Moves)
	}
}

func TestClientFoldValidation(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Fold(context.Background(), FoldRequest{})
	if err == nil {
		t.Fatal("expected sequence validation error")
	}

	_, err = client.Fold(context.Background(), FoldRequest{Sequence: "HPPH", Algorithm: "unknown"})
	if err == nil {
		t.Fatal("expected algorithm validation error")
	}

	_, err = client.Fold(context.Background(), FoldRequest{Sequence: "HPPH", Algorithm: "helix", Dims: 2})
	if err == nil {
		t.Fatal("expected helix dimensionality error")
	}
}

func TestClientFoldWritesTraceFile(t *testing.T) {
	client, base := newTestClient(t)
	tracePath := filepath.Join(base, "trace.csv.gz")

	_, err := client.Fold(context.Background(), FoldRequest{
		Sequence:   "hp14",
		Algorithm:  "anneal",
		Iterations: 6,
		Seed:       3,
		TracePath:  tracePath,
	})
	if err != nil {
		t.Fatalf("fold: %v", err)
	}

	steps, err := foldio.ReadTrace(tracePath)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if len(steps) != 6 {
		t.Fatalf("expected 6 trace steps, got %d", len(steps))
	}
	for i, step := range steps {
		if step.Iteration != i {
			t.Fatalf("unexpected iteration at step %d: %d", i, step.Iteration)
		}
	}
}

func TestClientBaselineAggregatesTrials(t *testing.T) {
	client, base := newTestClient(t)

	summary, err := client.Baseline(context.Background(), BaselineRequest{
		Sequence:   "hp14",
		Algorithm:  "anneal",
		Trials:     3,
		Iterations: 5,
		Seed:       9,
	})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if summary.Trials != 3 {
		t.Fatalf("unexpected trial count: %d", summary.Trials)
	}
	if summary.SuccessRate != 1 {
		t.Fatalf("expected success rate 1 without a target, got %f", summary.SuccessRate)
	}
	if summary.MinScore > summary.MaxScore {
		t.Fatalf("inconsistent score bounds: min=%d max=%d", summary.MinScore, summary.MaxScore)
	}
	for _, file := range []string{"baseline.json", "baseline.csv", "scores.png", "curves.png"} {
		if _, err := os.Stat(filepath.Join(summary.Directory, file)); err != nil {
			t.Fatalf("expected baseline file %s: %v", file, err)
		}
	}

	experiment, ok, err := stats.ReadBaselineExperiment(filepath.Join(base, "runs"), summary.BaselineID)
	if err != nil {
		t.Fatalf("read baseline experiment: %v", err)
	}
	if !ok {
		t.Fatal("expected baseline experiment progress file")
	}
	if experiment.ProgressFlag != "completed" {
		t.Fatalf("unexpected progress flag: %s", experiment.ProgressFlag)
	}
	if experiment.TrialIndex != 3 || len(experiment.Trials) != 3 {
		t.Fatalf("unexpected experiment progress: %+v", experiment)
	}
	if experiment.Trials[2].Seed != 11 {
		t.Fatalf("expected trial seeds offset from base seed, got %+v", experiment.Trials)
	}
}

func TestClientBaselineTargetScoreMarksSuccesses(t *testing.T) {
	client, base := newTestClient(t)

	// A target above any reachable score marks every trial successful.
	target := 1
	summary, err := client.Baseline(context.Background(), BaselineRequest{
		Sequence:    "HPPHHPPH",
		Algorithm:   "random",
		Trials:      2,
		Seed:        5,
		TargetScore: &target,
	})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if summary.SuccessRate != 1 {
		t.Fatalf("expected all trials at or below target, got rate %f", summary.SuccessRate)
	}

	report, ok, err := stats.ReadBaselineReport(filepath.Join(base, "runs"), summary.BaselineID)
	if err != nil {
		t.Fatalf("read baseline report: %v", err)
	}
	if !ok {
		t.Fatal("expected baseline report on disk")
	}
	if report.TargetScore == nil || *report.TargetScore != target {
		t.Fatalf("expected target score in report, got %+v", report.TargetScore)
	}
	for _, trial := range report.Trials {
		if !trial.Success {
			t.Fatalf("expected every trial successful, got %+v", report.Trials)
		}
	}
}

func TestClientBaselineRandomSkipsCurves(t *testing.T) {
	client, _ := newTestClient(t)

	summary, err := client.Baseline(context.Background(), BaselineRequest{
		Sequence:  "HPPHHPPH",
		Algorithm: "random",
		Trials:    2,
		Seed:      21,
	})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if _, err := os.Stat(filepath.Join(summary.Directory, "scores.png")); err != nil {
		t.Fatalf("expected score histogram: %v", err)
	}
	if _, err := os.Stat(filepath.Join(summary.Directory, "curves.png")); !os.IsNotExist(err) {
		t.Fatalf("expected no curves for single-step histories, got %v", err)
	}
}

func TestClientTraceAndExportRunSelection(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Trace(context.Background(), TraceRequest{RunID: "some-run", Latest: true})
	if err == nil || !strings.Contains(err.Error(), "use either run id or latest") {
		t.Fatalf("expected run selection conflict error, got %v", err)
	}

	_, err = client.Trace(context.Background(), TraceRequest{})
	if err == nil || !strings.Contains(err.Error(), "trace requires run id or latest") {
		t.Fatalf("expected missing run selection error, got %v", err)
	}

	_, err = client.Export(context.Background(), ExportRequest{Latest: true})
	if err == nil || !strings.Contains(err.Error(), "no runs available") {
		t.Fatalf("expected empty index error, got %v", err)
	}

	_, err = client.Trace(context.Background(), TraceRequest{RunID: "missing-run"})
	if err == nil || !strings.Contains(err.Error(), "trace not found") {
		t.Fatalf("expected missing trace error, got %v", err)
	}
}

func TestClientPlotWritesImages(t *testing.T) {
	client, base := newTestClient(t)

	summary, err := client.Fold(context.Background(), FoldRequest{
		Sequence:  "hp20",
		Algorithm: "spiral",
	})
	if err != nil {
		t.Fatalf("fold: %v", err)
	}

	foldPlot, err := client.Plot(context.Background(), PlotRequest{Latest: true})
	if err != nil {
		t.Fatalf("plot fold: %v", err)
	}
	if foldPlot.RunID != summary.RunID {
		t.Fatalf("plot run mismatch: got=%s want=%s", foldPlot.RunID, summary.RunID)
	}
	if _, err := os.Stat(foldPlot.Path); err != nil {
		t.Fatalf("expected fold image: %v", err)
	}

	historyPath := filepath.Join(base, "history.png")
	historyPlot, err := client.Plot(context.Background(), PlotRequest{
		RunID:   summary.RunID,
		Kind:    "history",
		OutPath: historyPath,
	})
	if err != nil {
		t.Fatalf("plot history: %v", err)
	}
	if historyPlot.Path != historyPath {
		t.Fatalf("unexpected history path: %s", historyPlot.Path)
	}
	if _, err := os.Stat(historyPath); err != nil {
		t.Fatalf("expected history image: %v", err)
	}

	_, err = client.Plot(context.Background(), PlotRequest{RunID: summary.RunID, Kind: "bogus"})
	if err == nil || !strings.Contains(err.Error(), "unsupported plot kind") {
		t.Fatalf("expected plot kind error, got %v", err)
	}
}

func TestClientScoreReadsFoldFile(t *testing.T) {
	client, base := newTestClient(t)

	path := filepath.Join(base, "fold.csv")
	data := "amino,fold\nH,1\nH,2\nP,-1\nH,0\nscore,-1\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fold file: %v", err)
	}

	summary, err := client.Score(context.Background(), ScoreRequest{Path: path})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if summary.Sequence != "HHPH" {
		t.Fatalf("unexpected sequence: %s", summary.Sequence)
	}
	if summary.Score != -1 {
		t.Fatalf("unexpected score: %d", summary.Score)
	}
	if summary.Moves != "RUL" {
		t.Fatalf("unexpected moves: %s", summary.Moves)
	}
	if summary.Contacts.Total != 1 || summary.Contacts.HydrophobicPairs != 1 {
		t.Fatalf("unexpected contact census: %+v", summary.Contacts)
	}
}
