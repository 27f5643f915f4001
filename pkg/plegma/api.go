// Package plegma is the public face of the lattice folding engine. A Client
// wires the fold generators, the window search, the refiners, persistence
// and the on-disk run artifacts behind request/summary pairs.
package plegma

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"plegma/internal/algoid"
	"plegma/internal/fold"
	"plegma/internal/foldio"
	"plegma/internal/lattice"
	"plegma/internal/model"
	"plegma/internal/plot"
	"plegma/internal/refine"
	"plegma/internal/search"
	"plegma/internal/seqset"
	"plegma/internal/stats"
	"plegma/internal/storage"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "plegma.db"

	defaultWorkers        = 4
	defaultBaselineTrials = 20
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
}

type Client struct {
	store storage.Store
	ready bool

	runsDir    string
	exportsDir string
}

// FoldRequest describes one engine invocation. Sequence accepts either a
// residue string or a built-in set name. Zero values select defaults; the
// snippet and temperature knobs only matter for the refining algorithms.
type FoldRequest struct {
	Sequence  string
	Dims      int
	Algorithm string
	Seed      int64
	Workers   int

	Iterations int
	Window     int
	MinSnippet int
	MaxSnippet int

	StartTemperature float64
	CoolingRate      float64
	MinTemperature   float64

	MaxBacktracks int
	MaxRestarts   int

	// TracePath streams per-iteration states as CSV, gzip-compressed when
	// the path ends .gz.
	TracePath string
}

type FoldSummary struct {
	RunID        string
	Algorithm    string
	Sequence     string
	Dims         int
	Score        int
	Moves        string
	Folding      []int
	ArtifactsDir string
	Iterations   int
	Accepted     int
	Skipped      int
}

type BaselineRequest struct {
	Sequence  string
	Algorithm string
	Dims      int
	Trials    int
	Seed      int64
	Workers   int

	Iterations int
	Window     int

	// TargetScore marks trials at or below it as successes.
	TargetScore *int
	Notes       string

	// Progress, when set, is called after each completed trial.
	Progress func(trial, total int)
}

type BaselineSummary struct {
	BaselineID  string
	Algorithm   string
	Sequence    string
	Dims        int
	Trials      int
	MeanScore   float64
	StdScore    float64
	MinScore    int
	MaxScore    int
	SuccessRate float64
	Directory   string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Algorithm    string
	Sequence     string
	Dims         int
	Seed         int64
	Iterations   int
	Score        int
}

type TraceRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type PlotRequest struct {
	RunID  string
	Latest bool
	// Kind selects the rendering: "fold" (default) or "history".
	Kind    string
	OutPath string
}

type PlotSummary struct {
	RunID string
	Path  string
}

type ScoreRequest struct {
	Path string
	Dims int
}

type ScoreSummary struct {
	Sequence string
	Dims     int
	Score    int
	Moves    string
	Contacts stats.ContactSummary
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.ready {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.ready = true
	return nil
}

// Fold runs one algorithm on one sequence and persists the resulting fold,
// the run record and the artifact directory.
func (c *Client) Fold(ctx context.Context, req FoldRequest) (FoldSummary, error) {
	if req.Sequence == "" {
		return FoldSummary{}, errors.New("sequence is required")
	}
	if req.Algorithm == "" {
		req.Algorithm = algoid.Beam
	}
	algorithm, err := algoid.Normalize(req.Algorithm)
	if err != nil {
		return FoldSummary{}, err
	}
	sequence, err := seqset.Resolve(req.Sequence)
	if err != nil {
		return FoldSummary{}, err
	}
	setName := ""
	if _, ok := seqset.Get(req.Sequence); ok {
		setName = strings.ToLower(req.Sequence)
	}
	if req.Dims == 0 {
		req.Dims = 2
	}
	if req.Workers <= 0 {
		req.Workers = defaultWorkers
	}
	if err := c.ensureStore(ctx); err != nil {
		return FoldSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%s", algorithm, req.Seed, uuid.NewString()[:8])

	var (
		history    []int
		traceSteps []model.TraceStep
		tw         *foldio.TraceWriter
		traceErr   error
	)
	if req.TracePath != "" {
		tw, err = foldio.NewTraceWriter(req.TracePath)
		if err != nil {
			return FoldSummary{}, err
		}
	}
	hook := func(entry refine.TraceEntry) {
		history = append(history, entry.Score)
		step := model.TraceStep(entry)
		traceSteps = append(traceSteps, step)
		if tw != nil && traceErr == nil {
			traceErr = tw.Write(step)
		}
	}

	chain, result, err := execute(ctx, algorithm, sequence, req, req.Seed, hook)
	if err != nil {
		if tw != nil {
			tw.Close()
		}
		return FoldSummary{}, err
	}

	moves, err := chain.MoveString()
	if err != nil {
		return FoldSummary{}, err
	}
	folding, err := chain.Folding()
	if err != nil {
		return FoldSummary{}, err
	}
	score := chain.Score()

	// Non-refining algorithms have no iteration history; record the final
	// state as a single step.
	if len(history) == 0 {
		history = []int{score}
		step := model.TraceStep{Iteration: 0, Moves: moves, Score: score}
		traceSteps = append(traceSteps, step)
		if tw != nil && traceErr == nil {
			traceErr = tw.Write(step)
		}
	}
	if tw != nil {
		if err := tw.Close(); err != nil && traceErr == nil {
			traceErr = err
		}
		if traceErr != nil {
			return FoldSummary{}, fmt.Errorf("write trace %s: %w", req.TracePath, traceErr)
		}
	}

	version := model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
	foldRecord := model.FoldRecord{
		VersionedRecord: version,
		ID:              "fold-" + runID,
		Sequence:        sequence,
		Dims:            req.Dims,
		Moves:           moves,
		Folding:         folding,
		Score:           score,
	}
	runRecord := model.RunRecord{
		VersionedRecord: version,
		ID:              runID,
		Algorithm:       algorithm,
		Sequence:        sequence,
		Dims:            req.Dims,
		Seed:            req.Seed,
		Iterations:      result.Iterations,
		Accepted:        result.Accepted,
		Skipped:         result.Skipped,
		Score:           score,
		FoldID:          foldRecord.ID,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
	}

	if err := c.store.SaveFold(ctx, foldRecord); err != nil {
		return FoldSummary{}, err
	}
	if err := c.store.SaveRun(ctx, runRecord); err != nil {
		return FoldSummary{}, err
	}
	if err := c.store.SaveTrace(ctx, runID, traceSteps); err != nil {
		return FoldSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:            runID,
			Algorithm:        algorithm,
			Sequence:         sequence,
			SequenceName:     setName,
			Dims:             req.Dims,
			Seed:             req.Seed,
			Workers:          req.Workers,
			Iterations:       result.Iterations,
			Window:           req.Window,
			MaxBacktracks:    req.MaxBacktracks,
			MaxRestarts:      req.MaxRestarts,
			MinSnippet:       req.MinSnippet,
			MaxSnippet:       req.MaxSnippet,
			StartTemperature: req.StartTemperature,
			CoolingRate:      req.CoolingRate,
			MinTemperature:   req.MinTemperature,
		},
		Fold:         foldRecord,
		Run:          runRecord,
		ScoreHistory: history,
	})
	if err != nil {
		return FoldSummary{}, err
	}
	if err := stats.WriteScoreSeries(runDir, history); err != nil {
		return FoldSummary{}, err
	}
	if err := foldio.WriteFoldFile(filepath.Join(runDir, "fold.csv"), chain); err != nil {
		return FoldSummary{}, err
	}
	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:        runID,
		Algorithm:    algorithm,
		Sequence:     sequence,
		Dims:         req.Dims,
		Seed:         req.Seed,
		Iterations:   result.Iterations,
		Score:        score,
		CreatedAtUTC: now.Format(time.RFC3339Nano),
	}); err != nil {
		return FoldSummary{}, err
	}

	return FoldSummary{
		RunID:        runID,
		Algorithm:    algorithm,
		Sequence:     sequence,
		Dims:         req.Dims,
		Score:        score,
		Moves:        moves,
		Folding:      append([]int(nil), folding...),
		ArtifactsDir: filepath.Clean(runDir),
		Iterations:   result.Iterations,
		Accepted:     result.Accepted,
		Skipped:      result.Skipped,
	}, nil
}

// Baseline runs repeated independent trials, one seed offset apart, and
// aggregates their final scores. Progress is checkpointed after every trial
// so an interrupted baseline can be inspected.
func (c *Client) Baseline(ctx context.Context, req BaselineRequest) (BaselineSummary, error) {
	if req.Sequence == "" {
		return BaselineSummary{}, errors.New("sequence is required")
	}
	if req.Algorithm == "" {
		req.Algorithm = algoid.Random
	}
	algorithm, err := algoid.Normalize(req.Algorithm)
	if err != nil {
		return BaselineSummary{}, err
	}
	sequence, err := seqset.Resolve(req.Sequence)
	if err != nil {
		return BaselineSummary{}, err
	}
	if req.Dims == 0 {
		req.Dims = 2
	}
	if req.Trials <= 0 {
		req.Trials = defaultBaselineTrials
	}
	if req.Workers <= 0 {
		req.Workers = defaultWorkers
	}

	now := time.Now().UTC()
	baselineID := fmt.Sprintf("baseline-%s-%d-%s", algorithm, req.Seed, uuid.NewString()[:8])
	experiment := stats.BaselineExperiment{
		ID:           baselineID,
		Notes:        req.Notes,
		ProgressFlag: "in_progress",
		TotalTrials:  req.Trials,
		StartedAtUTC: now.Format(time.RFC3339Nano),
	}
	if err := stats.WriteBaselineExperiment(c.runsDir, experiment); err != nil {
		return BaselineSummary{}, err
	}

	foldReq := FoldRequest{
		Dims:       req.Dims,
		Workers:    req.Workers,
		Iterations: req.Iterations,
		Window:     req.Window,
	}
	var (
		scores    []int
		histories [][]int
		trials    []stats.BaselineTrial
	)
	for i := 0; i < req.Trials; i++ {
		if err := ctx.Err(); err != nil {
			experiment.Interruptions = append(experiment.Interruptions, err.Error())
			if werr := stats.WriteBaselineExperiment(c.runsDir, experiment); werr != nil {
				return BaselineSummary{}, werr
			}
			return BaselineSummary{}, err
		}

		seed := req.Seed + int64(i)
		var history []int
		hook := func(entry refine.TraceEntry) {
			history = append(history, entry.Score)
		}
		chain, _, err := execute(ctx, algorithm, sequence, foldReq, seed, hook)
		if err != nil {
			return BaselineSummary{}, fmt.Errorf("trial %d: %w", i, err)
		}

		score := chain.Score()
		scores = append(scores, score)
		if len(history) == 0 {
			history = []int{score}
		}
		histories = append(histories, history)
		trials = append(trials, stats.BaselineTrial{Trial: i, Seed: seed, Score: score})

		experiment.TrialIndex = i + 1
		experiment.Trials = trials
		if err := stats.WriteBaselineExperiment(c.runsDir, experiment); err != nil {
			return BaselineSummary{}, err
		}
		if req.Progress != nil {
			req.Progress(i+1, req.Trials)
		}
	}

	summary, err := stats.Summarize(algorithm, sequence, req.Dims, scores)
	if err != nil {
		return BaselineSummary{}, err
	}
	report := stats.BuildBaselineReport(summary, trials, req.TargetScore)

	dir := filepath.Join(c.runsDir, baselineID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BaselineSummary{}, err
	}
	if err := stats.WriteBaselineReport(dir, report); err != nil {
		return BaselineSummary{}, err
	}
	if err := stats.WriteBaselineCSV(filepath.Join(dir, "baseline.csv"), report.Trials); err != nil {
		return BaselineSummary{}, err
	}
	if err := plot.ScoreHistogram(scores, filepath.Join(dir, "scores.png")); err != nil {
		return BaselineSummary{}, err
	}
	if mean := stats.MeanSeries(histories); len(mean) > 1 {
		best := stats.BestSeries(histories)
		bestPoints := make([]float64, len(best))
		for j, value := range best {
			bestPoints[j] = float64(value)
		}
		err := plot.ScoreCurves(filepath.Join(dir, "curves.png"),
			plot.Curve{Name: "mean", Points: mean},
			plot.Curve{Name: "best", Points: bestPoints},
		)
		if err != nil {
			return BaselineSummary{}, err
		}
	}

	experiment.ProgressFlag = "completed"
	experiment.CompletedAtUTC = time.Now().UTC().Format(time.RFC3339Nano)
	if err := stats.WriteBaselineExperiment(c.runsDir, experiment); err != nil {
		return BaselineSummary{}, err
	}

	return BaselineSummary{
		BaselineID:  baselineID,
		Algorithm:   algorithm,
		Sequence:    sequence,
		Dims:        req.Dims,
		Trials:      summary.Trials,
		MeanScore:   summary.MeanScore,
		StdScore:    summary.StdScore,
		MinScore:    summary.MinScore,
		MaxScore:    summary.MaxScore,
		SuccessRate: report.SuccessRate,
		Directory:   filepath.Clean(dir),
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Algorithm:    e.Algorithm,
			Sequence:     e.Sequence,
			Dims:         e.Dims,
			Seed:         e.Seed,
			Iterations:   e.Iterations,
			Score:        e.Score,
		})
	}
	return out, nil
}

func (c *Client) Trace(ctx context.Context, req TraceRequest) ([]model.TraceStep, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID("trace", req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	steps, ok, err := c.store.GetTrace(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("trace not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(steps) > req.Limit {
		steps = steps[:req.Limit]
	}
	return append([]model.TraceStep(nil), steps...), nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID("export", req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Plot renders a stored run: its fold geometry or its score history.
func (c *Client) Plot(_ context.Context, req PlotRequest) (PlotSummary, error) {
	if req.Kind == "" {
		req.Kind = "fold"
	}
	runID, err := c.resolveRunID("plot", req.RunID, req.Latest)
	if err != nil {
		return PlotSummary{}, err
	}

	switch req.Kind {
	case "fold":
		record, ok, err := stats.ReadFoldRecord(c.runsDir, runID)
		if err != nil {
			return PlotSummary{}, err
		}
		if !ok {
			return PlotSummary{}, fmt.Errorf("fold artifact not found for run id: %s", runID)
		}
		chain, err := lattice.NewChain(record.Sequence, record.Dims)
		if err != nil {
			return PlotSummary{}, err
		}
		if err := chain.ApplyFolding(record.Folding); err != nil {
			return PlotSummary{}, err
		}
		path := req.OutPath
		if path == "" {
			path = filepath.Join(c.runsDir, runID, "fold.png")
		}
		if err := plot.Fold(chain, path); err != nil {
			return PlotSummary{}, err
		}
		return PlotSummary{RunID: runID, Path: path}, nil

	case "history":
		history, ok, err := stats.ReadScoreHistory(c.runsDir, runID)
		if err != nil {
			return PlotSummary{}, err
		}
		if !ok {
			return PlotSummary{}, fmt.Errorf("score history not found for run id: %s", runID)
		}
		path := req.OutPath
		if path == "" {
			path = filepath.Join(c.runsDir, runID, "score_history.png")
		}
		if err := plot.ScoreHistory(history.ScoreByIteration, path); err != nil {
			return PlotSummary{}, err
		}
		return PlotSummary{RunID: runID, Path: path}, nil

	default:
		return PlotSummary{}, fmt.Errorf("unsupported plot kind: %s", req.Kind)
	}
}

// Score reads a fold CSV file and reports its score and contact census.
func (c *Client) Score(_ context.Context, req ScoreRequest) (ScoreSummary, error) {
	if req.Path == "" {
		return ScoreSummary{}, errors.New("fold file path is required")
	}
	if req.Dims == 0 {
		req.Dims = 2
	}

	chain, err := foldio.ReadFoldFile(req.Path, req.Dims)
	if err != nil {
		return ScoreSummary{}, err
	}
	moves, err := chain.MoveString()
	if err != nil {
		return ScoreSummary{}, err
	}
	return ScoreSummary{
		Sequence: chain.Sequence(),
		Dims:     chain.Dims(),
		Score:    chain.Score(),
		Moves:    moves,
		Contacts: stats.SummarizeContacts(chain),
	}, nil
}

func (c *Client) resolveRunID(op, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.runsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", op)
	}
	return runID, nil
}

// execute dispatches one algorithm invocation. The hook only fires for the
// refining algorithms; the zero Result is returned for the rest.
func execute(ctx context.Context, algorithm, sequence string, req FoldRequest, seed int64, hook refine.TraceFn) (*lattice.Chain, refine.Result, error) {
	switch algorithm {
	case algoid.Spiral, algoid.Zigzag, algoid.Helix:
		chain, err := fold.Seed(algorithm, sequence, req.Dims)
		return chain, refine.Result{}, err

	case algoid.Random:
		gen, err := fold.NewGenerator(fold.GeneratorConfig{
			Dims:          req.Dims,
			MaxBacktracks: req.MaxBacktracks,
			MaxRestarts:   req.MaxRestarts,
			Seed:          seed,
		})
		if err != nil {
			return nil, refine.Result{}, err
		}
		chain, err := gen.Generate(ctx, sequence)
		return chain, refine.Result{}, err

	case algoid.Beam:
		chain, err := lattice.NewChain(sequence, req.Dims)
		if err != nil {
			return nil, refine.Result{}, err
		}
		s, err := search.New(search.Config{
			Dims:    req.Dims,
			Window:  req.Window,
			Workers: req.Workers,
			Seed:    seed,
		})
		if err != nil {
			return nil, refine.Result{}, err
		}
		if err := s.Grow(ctx, chain); err != nil {
			if !errors.Is(err, search.ErrNoExtension) {
				return nil, refine.Result{}, err
			}
			// A dense window can strand the beam; fall back to the
			// backtracking walk.
			gen, gerr := fold.NewGenerator(fold.GeneratorConfig{
				Dims:          req.Dims,
				MaxBacktracks: req.MaxBacktracks,
				MaxRestarts:   req.MaxRestarts,
				Seed:          seed,
			})
			if gerr != nil {
				return nil, refine.Result{}, gerr
			}
			if err := gen.Fold(ctx, chain); err != nil {
				return nil, refine.Result{}, err
			}
		}
		return chain, refine.Result{}, nil

	case algoid.Hillclimb, algoid.Anneal:
		var start *lattice.Chain
		var err error
		if algorithm == algoid.Hillclimb {
			start, err = fold.Spiral(sequence, req.Dims)
		} else {
			gen, gerr := fold.NewGenerator(fold.GeneratorConfig{
				Dims:          req.Dims,
				MaxBacktracks: req.MaxBacktracks,
				MaxRestarts:   req.MaxRestarts,
				Seed:          seed,
			})
			if gerr != nil {
				return nil, refine.Result{}, gerr
			}
			start, err = gen.Generate(ctx, sequence)
		}
		if err != nil {
			return nil, refine.Result{}, err
		}

		refiner, err := refine.New(refine.Config{
			Dims:             req.Dims,
			Iterations:       req.Iterations,
			Workers:          req.Workers,
			Seed:             seed,
			MinSnippet:       req.MinSnippet,
			MaxSnippet:       req.MaxSnippet,
			StartTemperature: req.StartTemperature,
			CoolingRate:      req.CoolingRate,
			MinTemperature:   req.MinTemperature,
		})
		if err != nil {
			return nil, refine.Result{}, err
		}

		var result refine.Result
		if algorithm == algoid.Hillclimb {
			result, err = refiner.Hillclimb(ctx, start, hook)
		} else {
			result, err = refiner.Anneal(ctx, start, hook)
		}
		if err != nil {
			return nil, refine.Result{}, err
		}
		return result.Best, result, nil

	default:
		return nil, refine.Result{}, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}
}
