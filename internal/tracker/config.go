package tracker

import "github.com/jfsehuanes/thunderfish/internal/config"

// Config holds the numeric tunables for all tracking stages. The window
// and threshold defaults are empirical calibrations for wave-type electric
// fish recordings; they are carried here as plain values so sweeps can
// vary them without touching the algorithms.
type Config struct {
	// First-level sorting
	FrequencyTolerance   float64 // Hz; max difference to assign a candidate to a trajectory
	PrimTimeToleranceMin float64 // minutes of absence before a trajectory is forgotten
	CleanupIntervalMin   float64 // minutes between periodic prunes during assignment
	MinTrajectorySamples int     // valid samples below which a trajectory is pruned

	// Occurrence filter
	MinOccurrenceFraction float64 // fraction of total duration, capped at 1 minute

	// Rise detection
	RiseFrequencyThreshold float64 // Hz; base peak-to-settled difference
	PeakWindowSecs         float64 // seconds every sample after the peak must stay below it
	EndWindowSecs          float64 // seconds the frequency must have stopped dropping
	PlateauToleranceHz     float64 // Hz; end-window median within this of the end value
	GapShiftMin            float64 // minutes; gap length that moves the rise start forward
	MaxRiseDurationMin     float64 // minutes; abort an end candidate beyond this span

	// Merging
	MaxTimeToleranceMin float64 // minutes; max gap between two combinable trajectories
	FrequencyThreshold  float64 // Hz; max difference at the comparison points
	MaxOverlapSamples   int     // simultaneously-valid samples above which no merge
	MergeTimeWeight     float64 // weight of the time term in the merge cost
}

// DefaultConfig returns tracker configuration loaded from the canonical
// tuning defaults file (config/tracker.defaults.json). Panics if the file
// cannot be found — intended for tests and binaries that have already
// validated config availability.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
// Use this in production code where the TuningConfig is already loaded.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		FrequencyTolerance:     cfg.GetFrequencyTolerance(),
		PrimTimeToleranceMin:   cfg.GetPrimTimeToleranceMinutes(),
		CleanupIntervalMin:     cfg.GetCleanupIntervalMinutes(),
		MinTrajectorySamples:   cfg.GetMinTrajectorySamples(),
		MinOccurrenceFraction:  cfg.GetMinOccurrenceFraction(),
		RiseFrequencyThreshold: cfg.GetRiseFrequencyThreshold(),
		PeakWindowSecs:         cfg.GetPeakWindowSecs(),
		EndWindowSecs:          cfg.GetEndWindowSecs(),
		PlateauToleranceHz:     cfg.GetPlateauToleranceHz(),
		GapShiftMin:            cfg.GetGapShiftMinutes(),
		MaxRiseDurationMin:     cfg.GetMaxRiseDurationMinutes(),
		MaxTimeToleranceMin:    cfg.GetMaxTimeToleranceMinutes(),
		FrequencyThreshold:     cfg.GetFrequencyThreshold(),
		MaxOverlapSamples:      cfg.GetMaxOverlapSamples(),
		MergeTimeWeight:        cfg.GetMergeTimeWeight(),
	}
}
