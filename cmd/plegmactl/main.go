package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"plegma/internal/seqset"
	"plegma/internal/storage"
	api "plegma/pkg/plegma"
)

const (
	runsDir    = "runs"
	exportsDir = "exports"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "fold":
		return runFold(ctx, args[1:])
	case "baseline":
		return runBaseline(ctx, args[1:])
	case "sequences":
		return runSequences(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "trace":
		return runTrace(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "score":
		return runScore(ctx, args[1:])
	case "version":
		return runVersion(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runFold(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fold", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional fold config JSON path")
	sequence := fs.String("sequence", "", "residue string or sequence set name")
	algorithm := fs.String("algorithm", "beam", "folding algorithm: random|spiral|zigzag|helix|beam|hillclimb|anneal")
	dims := fs.Int("dims", 2, "lattice dimensionality: 2|3")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count")
	iterations := fs.Int("iterations", 0, "refinement iterations for hillclimb/anneal (0 uses default)")
	window := fs.Int("window", 0, "beam search window length (0 uses default)")
	minSnippet := fs.Int("min-snippet", 0, "minimum refinement snippet length (0 uses default)")
	maxSnippet := fs.Int("max-snippet", 0, "maximum refinement snippet length (0 uses default)")
	startTemp := fs.Float64("start-temp", 0, "annealing start temperature (0 uses default)")
	coolingRate := fs.Float64("cooling-rate", 0, "annealing cooling rate per iteration (0 uses default)")
	minTemp := fs.Float64("min-temp", 0, "annealing temperature floor (0 uses default)")
	maxBacktracks := fs.Int("max-backtracks", 0, "walk generator backtrack bound (0 uses default)")
	maxRestarts := fs.Int("max-restarts", 0, "walk generator restart bound (0 uses default)")
	traceOut := fs.String("trace-out", "", "write per-iteration trace CSV to path (.gz compresses)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "plegma.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultFoldRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = api.FoldRequest{
			Sequence:         *sequence,
			Algorithm:        *algorithm,
			Dims:             *dims,
			Seed:             *seed,
			Workers:          *workers,
			Iterations:       *iterations,
			Window:           *window,
			MinSnippet:       *minSnippet,
			MaxSnippet:       *maxSnippet,
			StartTemperature: *startTemp,
			CoolingRate:      *coolingRate,
			MinTemperature:   *minTemp,
			MaxBacktracks:    *maxBacktracks,
			MaxRestarts:      *maxRestarts,
			TracePath:        *traceOut,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"sequence":       *sequence,
			"algorithm":      *algorithm,
			"dims":           *dims,
			"seed":           *seed,
			"workers":        *workers,
			"iterations":     *iterations,
			"window":         *window,
			"min-snippet":    *minSnippet,
			"max-snippet":    *maxSnippet,
			"start-temp":     *startTemp,
			"cooling-rate":   *coolingRate,
			"min-temp":       *minTemp,
			"max-backtracks": *maxBacktracks,
			"max-restarts":   *maxRestarts,
			"trace-out":      *traceOut,
		})
	}
	if req.Sequence == "" {
		return errors.New("fold requires --sequence or a config file with one")
	}

	client, err := api.New(api.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Fold(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("fold completed run_id=%s algorithm=%s dims=%d seed=%d score=%d\n",
		summary.RunID, summary.Algorithm, summary.Dims, req.Seed, summary.Score)
	fmt.Printf("sequence=%s length=%d\n", summary.Sequence, len(summary.Sequence))
	fmt.Printf("moves=%s\n", summary.Moves)
	if summary.Iterations > 0 {
		fmt.Printf("iterations=%s accepted=%s skipped=%s\n",
			humanize.Comma(int64(summary.Iterations)),
			humanize.Comma(int64(summary.Accepted)),
			humanize.Comma(int64(summary.Skipped)),
		)
	}
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runBaseline(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("baseline", flag.ContinueOnError)
	sequence := fs.String("sequence", "", "residue string or sequence set name")
	file := fs.String("file", "", "sequence CSV path, one baseline per row")
	algorithm := fs.String("algorithm", "random", "folding algorithm: random|spiral|zigzag|helix|beam|hillclimb|anneal")
	dims := fs.Int("dims", 2, "lattice dimensionality: 2|3")
	trials := fs.Int("trials", 20, "trial count per sequence")
	seed := fs.Int64("seed", 1, "base rng seed, advanced by one per trial")
	workers := fs.Int("workers", 4, "worker count")
	iterations := fs.Int("iterations", 0, "refinement iterations for hillclimb/anneal (0 uses default)")
	window := fs.Int("window", 0, "beam search window length (0 uses default)")
	target := fs.Int("target", 0, "success target score: trials scoring at or below it count as successes")
	notes := fs.String("notes", "", "free-form notes recorded with the experiment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sequence != "" && *file != "" {
		return errors.New("use either --sequence or --file, not both")
	}
	if *sequence == "" && *file == "" {
		return errors.New("baseline requires --sequence or --file")
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	sequences := []string{*sequence}
	if *file != "" {
		loaded, err := seqset.ReadCSV(*file)
		if err != nil {
			return fmt.Errorf("read sequence file: %w", err)
		}
		if len(loaded) == 0 {
			return fmt.Errorf("sequence file %s is empty", *file)
		}
		sequences = loaded
	}

	client, err := api.New(api.Options{RunsDir: runsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	for i, seq := range sequences {
		req := api.BaselineRequest{
			Sequence:   seq,
			Algorithm:  *algorithm,
			Dims:       *dims,
			Trials:     *trials,
			Seed:       *seed + int64(i)*int64(*trials),
			Workers:    *workers,
			Iterations: *iterations,
			Window:     *window,
			Notes:      *notes,
		}
		if setFlags["target"] {
			value := *target
			req.TargetScore = &value
		}
		if interactive {
			prefix := ""
			if len(sequences) > 1 {
				prefix = fmt.Sprintf("sequence %d/%d ", i+1, len(sequences))
			}
			req.Progress = func(trial, total int) {
				fmt.Fprintf(os.Stderr, "\r%strial %d/%d", prefix, trial, total)
				if trial == total {
					fmt.Fprintln(os.Stderr)
				}
			}
		}

		summary, err := client.Baseline(ctx, req)
		if err != nil {
			return fmt.Errorf("baseline %s: %w", seq, err)
		}
		fmt.Printf("baseline completed baseline_id=%s algorithm=%s dims=%d trials=%d\n",
			summary.BaselineID, summary.Algorithm, summary.Dims, summary.Trials)
		fmt.Printf("sequence=%s length=%d\n", summary.Sequence, len(summary.Sequence))
		fmt.Printf("mean_score=%.3f std_score=%.3f min_score=%d max_score=%d success_rate=%.2f\n",
			summary.MeanScore, summary.StdScore, summary.MinScore, summary.MaxScore, summary.SuccessRate)
		fmt.Printf("artifacts_dir=%s\n", summary.Directory)
	}
	return nil
}

func runSequences(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("sequences", flag.ContinueOnError)
	generate := fs.Int("generate", 0, "generate N random sequences instead of listing built-ins")
	minLen := fs.Int("min-len", 15, "minimum generated sequence length")
	maxLen := fs.Int("max-len", 40, "maximum generated sequence length")
	alphabet := fs.String("alphabet", "hp", "residue alphabet: hp|hpc")
	seed := fs.Int64("seed", 1, "rng seed")
	out := fs.String("out", "", "output CSV path for generated sequences")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *generate > 0 {
		if *out == "" {
			return errors.New("sequences --generate requires --out")
		}
		sequences, err := seqset.Generate(seqset.GenerateConfig{
			Alphabet: *alphabet,
			Count:    *generate,
			MinLen:   *minLen,
			MaxLen:   *maxLen,
			Seed:     *seed,
		})
		if err != nil {
			return err
		}
		if err := seqset.WriteCSV(*out, sequences); err != nil {
			return err
		}
		fmt.Printf("generated sequences=%d alphabet=%s out=%s\n", len(sequences), *alphabet, *out)
		return nil
	}

	for _, name := range seqset.Names() {
		sequence, _ := seqset.Get(name)
		fmt.Printf("name=%s length=%d sequence=%s\n", name, len(sequence), sequence)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := api.New(api.Options{RunsDir: runsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, api.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		type runsItem struct {
			RunID        string `json:"run_id"`
			CreatedAtUTC string `json:"created_at_utc"`
			Algorithm    string `json:"algorithm"`
			Sequence     string `json:"sequence"`
			Dims         int    `json:"dims"`
			Seed         int64  `json:"seed"`
			Iterations   int    `json:"iterations"`
			Score        int    `json:"score"`
		}
		items := make([]runsItem, 0, len(runs))
		for _, r := range runs {
			items = append(items, runsItem{
				RunID:        r.RunID,
				CreatedAtUTC: r.CreatedAtUTC,
				Algorithm:    r.Algorithm,
				Sequence:     r.Sequence,
				Dims:         r.Dims,
				Seed:         r.Seed,
				Iterations:   r.Iterations,
				Score:        r.Score,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, r := range runs {
		age := "unknown"
		if created, err := time.Parse(time.RFC3339Nano, r.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Printf("run_id=%s created_at=%s age=%q algorithm=%s sequence_len=%d dims=%d seed=%d iterations=%s score=%d\n",
			r.RunID,
			r.CreatedAtUTC,
			age,
			r.Algorithm,
			len(r.Sequence),
			r.Dims,
			r.Seed,
			humanize.Comma(int64(r.Iterations)),
			r.Score,
		)
	}
	return nil
}

func runTrace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show trace for the most recent run from run index")
	limit := fs.Int("limit", 50, "max trace steps to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit trace steps as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "plegma.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("trace requires --run-id or --latest")
	}
	traceLimit := *limit
	if traceLimit < 0 {
		traceLimit = 0
	}

	client, err := api.New(api.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	steps, err := client.Trace(ctx, api.TraceRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  traceLimit,
	})
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		fmt.Println("no trace steps")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(steps)
	}

	for _, step := range steps {
		fmt.Printf("iteration=%d score=%d moves=%s\n", step.Iteration, step.Score, step.Moves)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := api.New(api.Options{RunsDir: runsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, api.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "plot the most recent run from run index")
	kind := fs.String("kind", "fold", "plot kind: fold|history")
	out := fs.String("out", "", "output image path; extension picks the format (.png/.svg/.pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("plot requires --run-id or --latest")
	}

	client, err := api.New(api.Options{RunsDir: runsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	plotted, err := client.Plot(ctx, api.PlotRequest{
		RunID:   *runID,
		Latest:  *latest,
		Kind:    *kind,
		OutPath: *out,
	})
	if err != nil {
		return err
	}
	fmt.Printf("plot written run_id=%s kind=%s path=%s\n", plotted.RunID, *kind, plotted.Path)
	return nil
}

func runScore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	file := fs.String("file", "", "fold CSV file path")
	dims := fs.Int("dims", 2, "lattice dimensionality: 2|3")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("score requires --file")
	}

	client, err := api.New(api.Options{RunsDir: runsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Score(ctx, api.ScoreRequest{Path: *file, Dims: *dims})
	if err != nil {
		return err
	}
	fmt.Printf("score=%d sequence=%s dims=%d moves=%s\n",
		summary.Score, summary.Sequence, summary.Dims, summary.Moves)
	fmt.Printf("contacts total=%d hydrophobic=%d cysteine=%d mixed=%d buried=%d/%d\n",
		summary.Contacts.Total,
		summary.Contacts.HydrophobicPairs,
		summary.Contacts.CysteinePairs,
		summary.Contacts.MixedPairs,
		summary.Contacts.HydrophobicBuried,
		summary.Contacts.HydrophobicResidue,
	)
	return nil
}

func runVersion(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Printf("plegmactl version=%s\n", version)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: plegmactl <fold|baseline|sequences|runs|trace|export|plot|score|version> [flags]", msg)
}
