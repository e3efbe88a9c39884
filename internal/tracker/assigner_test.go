package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantCandidates emits the same candidate set at every timestep.
func constantCandidates(n int, freqs ...float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = append([]float64(nil), freqs...)
	}
	return out
}

func TestAssignSingleConstantStream(t *testing.T) {
	t.Parallel()

	axis := makeAxis(100, 0.3)
	arena, err := AssignTrajectories(context.Background(), axis, constantCandidates(100, 500), testConfig())
	require.NoError(t, err)

	require.Equal(t, 1, arena.Len())
	tr := arena.Live()[0]
	assert.Equal(t, 100, tr.ValidCount())
	for i, s := range tr.Samples {
		require.True(t, s.Valid, "step %d", i)
		require.InDelta(t, 500.0, s.Freq, 1e-12)
	}
	assert.Empty(t, DetectRises(tr, axis.Dt(), testConfig()))
}

func TestAssignTwoParallelStreams(t *testing.T) {
	t.Parallel()

	axis := makeAxis(100, 0.3)
	arena, err := AssignTrajectories(context.Background(), axis, constantCandidates(100, 500, 505), testConfig())
	require.NoError(t, err)

	require.Equal(t, 2, arena.Len())
	for _, tr := range arena.Live() {
		require.Equal(t, 100, tr.ValidCount())
		want := tr.Samples[0].Freq
		for i, s := range tr.Samples {
			require.InDelta(t, want, s.Freq, 1e-12, "trajectory %d step %d", tr.ID, i)
		}
	}
}

func TestAssignConservesCandidates(t *testing.T) {
	t.Parallel()

	// With forgetting effectively disabled, every input candidate must end
	// up in exactly one trajectory slot.
	cfg := testConfig()
	cfg.PrimTimeToleranceMin = 1e9

	candidates := make([][]float64, 60)
	total := 0
	for i := range candidates {
		candidates[i] = []float64{500}
		total++
		if i <= 20 {
			candidates[i] = append(candidates[i], 600)
			total++
		}
	}

	arena, err := AssignTrajectories(context.Background(), makeAxis(60, 1), candidates, cfg)
	require.NoError(t, err)

	got := 0
	for _, tr := range arena.Live() {
		got += tr.ValidCount()
	}
	assert.Equal(t, total, got)
}

func TestAssignForgetting(t *testing.T) {
	t.Parallel()

	// One step per minute. The stream vanishes at step 5; after two absent
	// minutes the trajectory is forgotten, so the nearby candidate at step
	// 10 must start a fresh trajectory instead of re-anchoring.
	cfg := testConfig()
	cfg.PrimTimeToleranceMin = 2
	cfg.MinTrajectorySamples = 0

	candidates := make([][]float64, 12)
	for i := 0; i < 5; i++ {
		candidates[i] = []float64{500}
	}
	candidates[10] = []float64{500.3}

	t.Run("forgotten trajectory is not rematched", func(t *testing.T) {
		t.Parallel()
		arena, err := AssignTrajectories(context.Background(), makeAxis(12, 60), candidates, cfg)
		require.NoError(t, err)

		require.Equal(t, 2, arena.Len())
		live := arena.Live()
		assert.Equal(t, 4, live[0].LastValid())
		assert.Equal(t, 10, live[1].FirstValid())
	})

	t.Run("without forgetting the stream is resumed", func(t *testing.T) {
		t.Parallel()
		relaxed := cfg
		relaxed.PrimTimeToleranceMin = 1e9
		arena, err := AssignTrajectories(context.Background(), makeAxis(12, 60), candidates, relaxed)
		require.NoError(t, err)

		require.Equal(t, 1, arena.Len())
		tr := arena.Live()[0]
		assert.Equal(t, 6, tr.ValidCount())
		assert.InDelta(t, 500.3, tr.Samples[10].Freq, 1e-12)
	})
}

func TestAssignTieBreakPrefersRecentlyActive(t *testing.T) {
	t.Parallel()

	// Two streams at 500.0 and 500.4 Hz. The 500.0 stream goes quiet at
	// step 10; at step 13 an ambiguous candidate at 500.1 is within
	// tolerance of both trajectories. It is frequency-closer to the quiet
	// one, but the shorter absence run must win the tie.
	candidates := make([][]float64, 14)
	for i := 0; i < 10; i++ {
		candidates[i] = []float64{500.0, 500.4}
	}
	for i := 10; i < 13; i++ {
		candidates[i] = []float64{500.4}
	}
	candidates[13] = []float64{500.1}

	arena, err := AssignTrajectories(context.Background(), makeAxis(14, 1), candidates, testConfig())
	require.NoError(t, err)
	require.Equal(t, 2, arena.Len())

	quiet, active := arena.Live()[0], arena.Live()[1]
	assert.Equal(t, 9, quiet.LastValid())
	require.True(t, active.Samples[13].Valid)
	assert.InDelta(t, 500.1, active.Samples[13].Freq, 1e-12)
}

func TestAssignPrunesShortLivedTrajectories(t *testing.T) {
	t.Parallel()

	// A noise source emits for only five steps; the periodic cleanup must
	// drop it while the persistent stream survives.
	candidates := make([][]float64, 100)
	for i := range candidates {
		candidates[i] = []float64{500}
		if i < 5 {
			candidates[i] = append(candidates[i], 600)
		}
	}

	arena, err := AssignTrajectories(context.Background(), makeAxis(100, 60), candidates, testConfig())
	require.NoError(t, err)

	require.Equal(t, 1, arena.Len())
	assert.Equal(t, 100, arena.Live()[0].ValidCount())
}

func TestAssignStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	arena, err := AssignTrajectories(ctx, makeAxis(100, 0.3), constantCandidates(100, 500), testConfig())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, arena)
	assert.Equal(t, 0, arena.Len())
}

func TestAssignZeroCandidateSteps(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MinTrajectorySamples = 0
	candidates := make([][]float64, 20)
	candidates[3] = []float64{500}

	arena, err := AssignTrajectories(context.Background(), makeAxis(20, 1), candidates, cfg)
	require.NoError(t, err)
	require.Equal(t, 1, arena.Len())
	assert.Equal(t, 1, arena.Live()[0].ValidCount())
}
