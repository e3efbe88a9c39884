package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/jfsehuanes/thunderfish/internal/tracker"
)

// ErrNoTrajectories is returned when the occurrence filter removes every
// trajectory. The caller may relax the tunables and retry; proceeding on
// an empty set would silently produce an empty result.
var ErrNoTrajectories = errors.New("no trajectories survived the occurrence filter")

// Result is the output of a completed pipeline run.
type Result struct {
	Axis  tracker.TimeAxis
	Arena *tracker.Arena
}

// Options carries the optional collaborators of a run.
type Options struct {
	// AfterAssign is invoked with the first-level trajectories before the
	// destructive stages run, typically to persist the assignment so a
	// later run can resume from it. An error aborts the pipeline.
	AfterAssign func(axis tracker.TimeAxis, arena *tracker.Arena) error
}

// Validate fail-fasts on malformed input before any stage runs.
func Validate(axis tracker.TimeAxis, candidates [][]float64, cfg tracker.Config) error {
	if err := axis.Validate(); err != nil {
		return fmt.Errorf("time axis: %w", err)
	}
	if len(candidates) != len(axis) {
		return fmt.Errorf("candidate sequence length %d does not match time axis length %d",
			len(candidates), len(axis))
	}
	return validateConfig(cfg)
}

func validateConfig(cfg tracker.Config) error {
	checks := []struct {
		name  string
		value float64
	}{
		{"frequency tolerance", cfg.FrequencyTolerance},
		{"prim time tolerance", cfg.PrimTimeToleranceMin},
		{"minimum occurrence fraction", cfg.MinOccurrenceFraction},
		{"rise frequency threshold", cfg.RiseFrequencyThreshold},
		{"max time tolerance", cfg.MaxTimeToleranceMin},
		{"frequency threshold", cfg.FrequencyThreshold},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("%s must be positive, got %g", c.name, c.value)
		}
	}
	return nil
}

// Run executes the full pipeline on one recording's candidate sequence:
// assign, filter, detect rises, split, merge. opts may be nil.
func Run(ctx context.Context, axis tracker.TimeAxis, candidates [][]float64, cfg tracker.Config, opts *Options) (*Result, error) {
	if err := Validate(axis, candidates, cfg); err != nil {
		return nil, err
	}

	diagf("sorting candidates: %d timesteps, dt=%.3fs", len(axis), axis.Dt())
	arena, err := tracker.AssignTrajectories(ctx, axis, candidates, cfg)
	if err != nil {
		return nil, fmt.Errorf("first-level sorting: %w", err)
	}
	diagf("first-level sorting done: %d trajectories", arena.Len())

	if opts != nil && opts.AfterAssign != nil {
		if err := opts.AfterAssign(axis, arena); err != nil {
			return nil, fmt.Errorf("after-assign hook: %w", err)
		}
	}

	return RunFromFirstLevel(ctx, axis, arena, cfg)
}

// RunFromFirstLevel executes the stages downstream of assignment on an
// already-sorted trajectory collection, typically reloaded from storage.
// The arena is mutated in place.
func RunFromFirstLevel(ctx context.Context, axis tracker.TimeAxis, arena *tracker.Arena, cfg tracker.Config) (*Result, error) {
	if err := axis.Validate(); err != nil {
		return nil, fmt.Errorf("time axis: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if removed := tracker.FilterShort(arena, axis, cfg); removed > 0 {
		diagf("occurrence filter removed %d trajectories, %d left", removed, arena.Len())
	}
	if arena.Len() == 0 {
		opsf("occurrence filter removed every trajectory")
		return nil, ErrNoTrajectories
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dt := axis.Dt()
	rises := 0
	for _, tr := range arena.Live() {
		tr.Rises = tracker.DetectRises(tr, dt, cfg)
		if len(tr.Rises) > 0 {
			tracef("trajectory %d: %d rises", tr.ID, len(tr.Rises))
			rises += len(tr.Rises)
		}
	}
	diagf("rise detection done: %d rises", rises)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created, pruned := tracker.SplitAtRises(arena, cfg)
	diagf("split at rises: %d fragments created, %d pruned, %d left", created, pruned, arena.Len())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := tracker.MergeTrajectories(arena, dt, cfg)
	diagf("combining done: %d merges, %d trajectories left", merged, arena.Len())

	return &Result{Axis: axis, Arena: arena}, nil
}
