package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tracker defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tracker.defaults.json"

// TuningConfig represents the root configuration for tracker tuning
// parameters. All fields are plain numeric tunables; omitted fields fall
// back to the defaults returned by the Get* accessors, so partial configs
// are safe.
type TuningConfig struct {
	// First-level sorting params
	FrequencyTolerance       *float64 `json:"frequency_tolerance,omitempty"`        // Hz
	PrimTimeToleranceMinutes *float64 `json:"prim_time_tolerance_minutes,omitempty"`
	CleanupIntervalMinutes   *float64 `json:"cleanup_interval_minutes,omitempty"`
	MinTrajectorySamples     *int     `json:"min_trajectory_samples,omitempty"`

	// Occurrence filter params
	MinOccurrenceFraction *float64 `json:"min_occurrence_fraction,omitempty"`

	// Rise detection params
	RiseFrequencyThreshold  *float64 `json:"rise_frequency_threshold,omitempty"` // Hz
	PeakWindowSecs          *float64 `json:"peak_window_secs,omitempty"`
	EndWindowSecs           *float64 `json:"end_window_secs,omitempty"`
	PlateauToleranceHz      *float64 `json:"plateau_tolerance_hz,omitempty"`
	GapShiftMinutes         *float64 `json:"gap_shift_minutes,omitempty"`
	MaxRiseDurationMinutes  *float64 `json:"max_rise_duration_minutes,omitempty"`

	// Merge params
	MaxTimeToleranceMinutes *float64 `json:"max_time_tolerance_minutes,omitempty"`
	FrequencyThreshold      *float64 `json:"frequency_threshold,omitempty"` // Hz
	MaxOverlapSamples       *int     `json:"max_overlap_samples,omitempty"`
	MergeTimeWeight         *float64 `json:"merge_time_weight,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDefaultConfig loads the canonical tracker defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories
// and returns an error when none of them holds it.
func LoadDefaultConfig() (*TuningConfig, error) {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/storage/sqlite/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("cannot find %s relative to the working directory", DefaultConfigPath)
}

// MustLoadDefaultConfig is LoadDefaultConfig panicking on failure, intended
// for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	cfg, err := LoadDefaultConfig()
	if err != nil {
		panic(err.Error() + " - run tests from repository root")
	}
	return cfg
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.FrequencyTolerance != nil && *c.FrequencyTolerance <= 0 {
		return fmt.Errorf("frequency_tolerance must be positive, got %f", *c.FrequencyTolerance)
	}
	if c.RiseFrequencyThreshold != nil && *c.RiseFrequencyThreshold <= 0 {
		return fmt.Errorf("rise_frequency_threshold must be positive, got %f", *c.RiseFrequencyThreshold)
	}
	if c.FrequencyThreshold != nil && *c.FrequencyThreshold <= 0 {
		return fmt.Errorf("frequency_threshold must be positive, got %f", *c.FrequencyThreshold)
	}
	if c.PrimTimeToleranceMinutes != nil && *c.PrimTimeToleranceMinutes <= 0 {
		return fmt.Errorf("prim_time_tolerance_minutes must be positive, got %f", *c.PrimTimeToleranceMinutes)
	}
	if c.MaxTimeToleranceMinutes != nil && *c.MaxTimeToleranceMinutes <= 0 {
		return fmt.Errorf("max_time_tolerance_minutes must be positive, got %f", *c.MaxTimeToleranceMinutes)
	}
	if c.MinOccurrenceFraction != nil {
		if *c.MinOccurrenceFraction < 0 || *c.MinOccurrenceFraction > 1 {
			return fmt.Errorf("min_occurrence_fraction must be between 0 and 1, got %f", *c.MinOccurrenceFraction)
		}
	}
	if c.MaxOverlapSamples != nil && *c.MaxOverlapSamples < 0 {
		return fmt.Errorf("max_overlap_samples must be non-negative, got %d", *c.MaxOverlapSamples)
	}
	return nil
}

// GetFrequencyTolerance returns the frequency_tolerance value or the default.
func (c *TuningConfig) GetFrequencyTolerance() float64 {
	if c.FrequencyTolerance == nil {
		return 0.5
	}
	return *c.FrequencyTolerance
}

// GetPrimTimeToleranceMinutes returns the prim_time_tolerance_minutes value or the default.
func (c *TuningConfig) GetPrimTimeToleranceMinutes() float64 {
	if c.PrimTimeToleranceMinutes == nil {
		return 5.0
	}
	return *c.PrimTimeToleranceMinutes
}

// GetCleanupIntervalMinutes returns the cleanup_interval_minutes value or the default.
func (c *TuningConfig) GetCleanupIntervalMinutes() float64 {
	if c.CleanupIntervalMinutes == nil {
		return 30.0
	}
	return *c.CleanupIntervalMinutes
}

// GetMinTrajectorySamples returns the min_trajectory_samples value or the default.
func (c *TuningConfig) GetMinTrajectorySamples() int {
	if c.MinTrajectorySamples == nil {
		return 10
	}
	return *c.MinTrajectorySamples
}

// GetMinOccurrenceFraction returns the min_occurrence_fraction value or the default.
func (c *TuningConfig) GetMinOccurrenceFraction() float64 {
	if c.MinOccurrenceFraction == nil {
		return 0.01
	}
	return *c.MinOccurrenceFraction
}

// GetRiseFrequencyThreshold returns the rise_frequency_threshold value or the default.
func (c *TuningConfig) GetRiseFrequencyThreshold() float64 {
	if c.RiseFrequencyThreshold == nil {
		return 0.5
	}
	return *c.RiseFrequencyThreshold
}

// GetPeakWindowSecs returns the peak_window_secs value or the default.
func (c *TuningConfig) GetPeakWindowSecs() float64 {
	if c.PeakWindowSecs == nil {
		return 10.0
	}
	return *c.PeakWindowSecs
}

// GetEndWindowSecs returns the end_window_secs value or the default.
func (c *TuningConfig) GetEndWindowSecs() float64 {
	if c.EndWindowSecs == nil {
		return 30.0
	}
	return *c.EndWindowSecs
}

// GetPlateauToleranceHz returns the plateau_tolerance_hz value or the default.
func (c *TuningConfig) GetPlateauToleranceHz() float64 {
	if c.PlateauToleranceHz == nil {
		return 0.05
	}
	return *c.PlateauToleranceHz
}

// GetGapShiftMinutes returns the gap_shift_minutes value or the default.
func (c *TuningConfig) GetGapShiftMinutes() float64 {
	if c.GapShiftMinutes == nil {
		return 3.0
	}
	return *c.GapShiftMinutes
}

// GetMaxRiseDurationMinutes returns the max_rise_duration_minutes value or the default.
func (c *TuningConfig) GetMaxRiseDurationMinutes() float64 {
	if c.MaxRiseDurationMinutes == nil {
		return 10.0
	}
	return *c.MaxRiseDurationMinutes
}

// GetMaxTimeToleranceMinutes returns the max_time_tolerance_minutes value or the default.
func (c *TuningConfig) GetMaxTimeToleranceMinutes() float64 {
	if c.MaxTimeToleranceMinutes == nil {
		return 10.0
	}
	return *c.MaxTimeToleranceMinutes
}

// GetFrequencyThreshold returns the frequency_threshold value or the default.
func (c *TuningConfig) GetFrequencyThreshold() float64 {
	if c.FrequencyThreshold == nil {
		return 5.0
	}
	return *c.FrequencyThreshold
}

// GetMaxOverlapSamples returns the max_overlap_samples value or the default.
func (c *TuningConfig) GetMaxOverlapSamples() int {
	if c.MaxOverlapSamples == nil {
		return 20
	}
	return *c.MaxOverlapSamples
}

// GetMergeTimeWeight returns the merge_time_weight value or the default.
// Kept small so frequency difference dominates the merge cost.
func (c *TuningConfig) GetMergeTimeWeight() float64 {
	if c.MergeTimeWeight == nil {
		return 0.01
	}
	return *c.MergeTimeWeight
}
