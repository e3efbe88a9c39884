package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jfsehuanes/thunderfish/internal/config"
	"github.com/jfsehuanes/thunderfish/internal/monitor"
	"github.com/jfsehuanes/thunderfish/internal/pipeline"
	"github.com/jfsehuanes/thunderfish/internal/storage/sqlite"
	"github.com/jfsehuanes/thunderfish/internal/tracker"
)

var (
	inputPath  = flag.String("input", "", "Candidate file (JSON with times and per-step candidate frequencies)")
	recording  = flag.String("recording", "", "Recording name (default: input file base name)")
	dbPath     = flag.String("db", "", "Sqlite database for persisting artifacts (optional)")
	configPath = flag.String("config", "", "Tuning config JSON (default: built-in defaults)")
	resume     = flag.Bool("resume", false, "Resume from the persisted first-level sort (requires -db and -recording)")
	plotPath   = flag.String("plot", "", "Write a PNG trajectory plot to this path")
	htmlPath   = flag.String("html", "", "Write an interactive HTML report to this path")
	verbosity  = flag.Int("v", 1, "Verbosity: 0 quiet, 1 ops, 2 diagnostics, 3 trace")
)

// candidateFile is the input format of the extraction front-end: a time
// axis in seconds plus one candidate set per timestep.
type candidateFile struct {
	Times      []float64   `json:"times"`
	Candidates [][]float64 `json:"candidates"`
}

func main() {
	flag.Parse()

	if *inputPath == "" && !*resume {
		log.Fatal("either -input or -resume is required")
	}
	if *resume && (*dbPath == "" || *recording == "") {
		log.Fatal("-resume requires -db and -recording")
	}

	setupLogging(*verbosity)

	tuning, err := loadTuning(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := tracker.ConfigFromTuning(tuning)

	rec := *recording
	if rec == "" {
		rec = strings.TrimSuffix(filepath.Base(*inputPath), filepath.Ext(*inputPath))
	}

	var store *sqlite.Store
	if *dbPath != "" {
		store, err = sqlite.Open(*dbPath)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, cfg, store, rec)
	if errors.Is(err, pipeline.ErrNoTrajectories) {
		log.Fatalf("no trajectories survived filtering; relax the tunables and retry")
	}
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	rises := 0
	for _, tr := range res.Arena.Live() {
		rises += len(tr.Rises)
	}
	log.Printf("done: %d trajectories, %d rises", res.Arena.Len(), rises)

	if store != nil {
		if err := persistFinal(store, rec, res); err != nil {
			log.Fatalf("persist result: %v", err)
		}
	}
	if *plotPath != "" {
		if err := monitor.SavePlot(res.Arena, res.Axis, *plotPath); err != nil {
			log.Fatalf("plot: %v", err)
		}
		log.Printf("wrote plot %s", *plotPath)
	}
	if *htmlPath != "" {
		if err := monitor.SaveHTMLReport(res.Arena, res.Axis, rec, *htmlPath); err != nil {
			log.Fatalf("html report: %v", err)
		}
		log.Printf("wrote report %s", *htmlPath)
	}
}

func run(ctx context.Context, cfg tracker.Config, store *sqlite.Store, rec string) (*pipeline.Result, error) {
	if *resume {
		axis, err := store.LoadTimeAxis(rec)
		if err != nil {
			return nil, err
		}
		arena, err := store.LoadTrajectories(rec, sqlite.StageFirstLevel, len(axis))
		if err != nil {
			return nil, err
		}
		log.Printf("resuming %s from first-level sort: %d trajectories", rec, arena.Len())
		return pipeline.RunFromFirstLevel(ctx, axis, arena, cfg)
	}

	axis, candidates, err := loadCandidates(*inputPath)
	if err != nil {
		return nil, err
	}

	var opts *pipeline.Options
	if store != nil {
		opts = &pipeline.Options{AfterAssign: func(axis tracker.TimeAxis, arena *tracker.Arena) error {
			if err := store.SaveTimeAxis(rec, axis); err != nil {
				return err
			}
			if err := store.SaveTrajectories(rec, sqlite.StageFirstLevel, arena); err != nil {
				return err
			}
			_, err := store.RecordRun(rec, sqlite.StageFirstLevel, arena.Len(), 0)
			return err
		}}
	}
	return pipeline.Run(ctx, axis, candidates, cfg, opts)
}

func persistFinal(store *sqlite.Store, rec string, res *pipeline.Result) error {
	if err := store.SaveTimeAxis(rec, res.Axis); err != nil {
		return err
	}
	if err := store.SaveTrajectories(rec, sqlite.StageFinal, res.Arena); err != nil {
		return err
	}
	if err := store.SaveRises(rec, sqlite.StageFinal, res.Arena); err != nil {
		return err
	}
	rises := 0
	for _, tr := range res.Arena.Live() {
		rises += len(tr.Rises)
	}
	runID, err := store.RecordRun(rec, sqlite.StageFinal, res.Arena.Len(), rises)
	if err != nil {
		return err
	}
	log.Printf("persisted final result as run %s", runID)
	return nil
}

func setupLogging(level int) {
	var ops, diag, trace io.Writer
	if level >= 1 {
		ops = os.Stderr
	}
	if level >= 2 {
		diag = os.Stderr
	}
	if level >= 3 {
		trace = os.Stderr
	}
	pipeline.SetLogWriters(ops, diag, trace)
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.LoadDefaultConfig()
	}
	tuning, err := config.LoadTuningConfig(path)
	if err != nil {
		return nil, err
	}
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	return tuning, nil
}

func loadCandidates(path string) (tracker.TimeAxis, [][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read candidate file: %w", err)
	}
	var cf candidateFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, nil, fmt.Errorf("parse candidate file: %w", err)
	}
	return tracker.TimeAxis(cf.Times), cf.Candidates, nil
}
