package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyTuningConfigDefaults(t *testing.T) {
	t.Parallel()
	cfg := EmptyTuningConfig()

	assert.InDelta(t, 0.5, cfg.GetFrequencyTolerance(), 1e-12)
	assert.InDelta(t, 5.0, cfg.GetPrimTimeToleranceMinutes(), 1e-12)
	assert.InDelta(t, 30.0, cfg.GetCleanupIntervalMinutes(), 1e-12)
	assert.Equal(t, 10, cfg.GetMinTrajectorySamples())
	assert.InDelta(t, 0.01, cfg.GetMinOccurrenceFraction(), 1e-12)
	assert.InDelta(t, 0.5, cfg.GetRiseFrequencyThreshold(), 1e-12)
	assert.InDelta(t, 10.0, cfg.GetPeakWindowSecs(), 1e-12)
	assert.InDelta(t, 30.0, cfg.GetEndWindowSecs(), 1e-12)
	assert.InDelta(t, 0.05, cfg.GetPlateauToleranceHz(), 1e-12)
	assert.InDelta(t, 3.0, cfg.GetGapShiftMinutes(), 1e-12)
	assert.InDelta(t, 10.0, cfg.GetMaxRiseDurationMinutes(), 1e-12)
	assert.InDelta(t, 10.0, cfg.GetMaxTimeToleranceMinutes(), 1e-12)
	assert.InDelta(t, 5.0, cfg.GetFrequencyThreshold(), 1e-12)
	assert.Equal(t, 20, cfg.GetMaxOverlapSamples())
	assert.InDelta(t, 0.01, cfg.GetMergeTimeWeight(), 1e-12)
}

func TestMustLoadDefaultConfigMatchesAccessors(t *testing.T) {
	t.Parallel()
	cfg := MustLoadDefaultConfig()

	// The defaults file must agree with the accessor fallbacks so an absent
	// file and a pristine file produce identical behaviour.
	empty := EmptyTuningConfig()
	assert.InDelta(t, empty.GetFrequencyTolerance(), cfg.GetFrequencyTolerance(), 1e-12)
	assert.InDelta(t, empty.GetRiseFrequencyThreshold(), cfg.GetRiseFrequencyThreshold(), 1e-12)
	assert.InDelta(t, empty.GetFrequencyThreshold(), cfg.GetFrequencyThreshold(), 1e-12)
	assert.Equal(t, empty.GetMaxOverlapSamples(), cfg.GetMaxOverlapSamples())
	assert.Equal(t, empty.GetMinTrajectorySamples(), cfg.GetMinTrajectorySamples())
}

func TestLoadDefaultConfigOutsideRepository(t *testing.T) {
	// From a directory tree without the defaults file the loader must
	// report an error instead of panicking, so the CLI can turn it into a
	// normal startup failure.
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := LoadDefaultConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultConfigPath)
	assert.Nil(t, cfg)
}

func TestLoadTuningConfigPartial(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"frequency_tolerance": 1.25}`), 0o644))

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, cfg.GetFrequencyTolerance(), 1e-12)
	// Omitted fields keep their defaults.
	assert.InDelta(t, 5.0, cfg.GetFrequencyThreshold(), 1e-12)
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	t.Parallel()
	_, err := LoadTuningConfig("tracker.defaults.yaml")
	assert.Error(t, err)
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*TuningConfig)
		wantErr bool
	}{
		{"empty config is valid", func(c *TuningConfig) {}, false},
		{"negative frequency tolerance", func(c *TuningConfig) {
			v := -0.5
			c.FrequencyTolerance = &v
		}, true},
		{"zero rise threshold", func(c *TuningConfig) {
			v := 0.0
			c.RiseFrequencyThreshold = &v
		}, true},
		{"occurrence fraction above one", func(c *TuningConfig) {
			v := 1.5
			c.MinOccurrenceFraction = &v
		}, true},
		{"negative overlap cap", func(c *TuningConfig) {
			v := -1
			c.MaxOverlapSamples = &v
		}, true},
		{"valid overrides", func(c *TuningConfig) {
			v := 2.0
			c.FrequencyTolerance = &v
			c.FrequencyThreshold = &v
		}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := EmptyTuningConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
