package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riseTrajectory builds a trajectory holding a plateau, a fast climb to
// peakFreq, a linear decay back to baseFreq and a settled tail. Returns
// the trajectory plus the peak and decay-end indices.
func riseTrajectory(axisLen int, baseFreq, peakFreq float64) (*Trajectory, int, int) {
	tr := &Trajectory{Samples: make([]Sample, axisLen)}
	const peakIdx, endIdx = 23, 103
	for i := 0; i < 20; i++ {
		tr.Set(i, baseFreq)
	}
	climb := (peakFreq - baseFreq) / 4
	for i := 20; i <= peakIdx; i++ {
		tr.Set(i, baseFreq+float64(i-19)*climb)
	}
	decay := (peakFreq - baseFreq) / float64(endIdx-peakIdx)
	for i := peakIdx + 1; i <= endIdx; i++ {
		tr.Set(i, peakFreq-float64(i-peakIdx)*decay)
	}
	for i := endIdx + 1; i < axisLen; i++ {
		tr.Set(i, baseFreq)
	}
	return tr, peakIdx, endIdx
}

func TestDetectRisesSingleExcursion(t *testing.T) {
	t.Parallel()

	// 500 Hz baseline, 2 s climb to 520 Hz, 40 s decay back down.
	cfg := testConfig()
	cfg.RiseFrequencyThreshold = 5
	tr, peakIdx, endIdx := riseTrajectory(120, 500, 520)

	rises := DetectRises(tr, 0.5, cfg)
	require.Len(t, rises, 1)

	r := rises[0]
	assert.Equal(t, peakIdx, r.Start)
	assert.Equal(t, endIdx, r.End)
	assert.InDelta(t, 520.0, r.StartFreq, 1e-9)
	assert.InDelta(t, 500.0, r.EndFreq, 1e-6)
}

func TestDetectRisesNoneOnFlatTrajectory(t *testing.T) {
	t.Parallel()

	tr := &Trajectory{Samples: make([]Sample, 200)}
	for i := range tr.Samples {
		tr.Set(i, 742.5)
	}
	assert.Empty(t, DetectRises(tr, 0.5, testConfig()))
}

func TestDetectRisesNoneOnShortSpan(t *testing.T) {
	t.Parallel()

	// Valid span shorter than the peak window: nothing to scan.
	tr := &Trajectory{Samples: make([]Sample, 300)}
	for i := 100; i < 115; i++ {
		tr.Set(i, 500)
	}
	assert.Empty(t, DetectRises(tr, 0.5, testConfig()))
}

func TestDetectRisesRejectsShallowExcursion(t *testing.T) {
	t.Parallel()

	// The excursion height stays below the acceptance threshold.
	cfg := testConfig()
	cfg.RiseFrequencyThreshold = 5
	tr, _, _ := riseTrajectory(120, 500, 502)

	assert.Empty(t, DetectRises(tr, 0.5, cfg))
}

func TestDetectRisesPlateauEndsCreepingTail(t *testing.T) {
	t.Parallel()

	// After the decay the frequency keeps creeping down by 0.5 mHz per
	// step, so it never formally stops dropping. The 30 s window median
	// stays within the plateau tolerance of the candidate end, which must
	// close the excursion at the start of the creep.
	cfg := testConfig()
	cfg.RiseFrequencyThreshold = 5
	tr := &Trajectory{Samples: make([]Sample, 300)}
	for i := 0; i < 20; i++ {
		tr.Set(i, 500)
	}
	for i := 20; i <= 23; i++ {
		tr.Set(i, 500+float64(i-19)*5)
	}
	for i := 24; i <= 103; i++ {
		tr.Set(i, 520-float64(i-23)*0.24375)
	}
	for i := 104; i < 300; i++ {
		tr.Set(i, 500.5-float64(i-103)*0.0005)
	}

	rises := DetectRises(tr, 0.5, cfg)
	require.Len(t, rises, 1)
	assert.Equal(t, 23, rises[0].Start)
	assert.Equal(t, 103, rises[0].End)
	assert.InDelta(t, 500.5, rises[0].EndFreq, 1e-9)
}

func TestDetectRisesAbandonsExcursionOnClimbBack(t *testing.T) {
	t.Parallel()

	// An 18 Hz drop from the 520 Hz peak is interrupted by a sample back
	// above the peak before any end condition holds, so the excursion is
	// abandoned despite being deep enough. Only the two-sample spike at
	// index 60 registers.
	cfg := testConfig()
	cfg.RiseFrequencyThreshold = 5
	tr := &Trajectory{Samples: make([]Sample, 200)}
	for i := 0; i < 20; i++ {
		tr.Set(i, 500)
	}
	for i := 20; i <= 23; i++ {
		tr.Set(i, 500+float64(i-19)*5)
	}
	for i := 24; i <= 59; i++ {
		tr.Set(i, 520-float64(i-23)*0.5)
	}
	tr.Set(60, 521)
	for i := 61; i < 200; i++ {
		tr.Set(i, 500)
	}

	rises := DetectRises(tr, 0.5, cfg)
	require.Len(t, rises, 1)
	assert.Equal(t, 60, rises[0].Start)
	assert.Equal(t, 61, rises[0].End)
	assert.InDelta(t, 521.0, rises[0].StartFreq, 1e-9)
}

func TestDetectRisesDurationCapBoundsStart(t *testing.T) {
	t.Parallel()

	// A 700-step glide down to the settled tail. End candidates further
	// than ten minutes from their peak are abandoned, so the accepted rise
	// starts at the first index within the cap of the glide's end, not at
	// the 520 Hz summit.
	tr := &Trajectory{Samples: make([]Sample, 764)}
	for i := 0; i < 20; i++ {
		tr.Set(i, 500)
	}
	for i := 20; i <= 23; i++ {
		tr.Set(i, 500+float64(i-19)*5)
	}
	for i := 24; i <= 723; i++ {
		tr.Set(i, 520-float64(i-23)*0.02)
	}
	for i := 724; i < 764; i++ {
		tr.Set(i, 506)
	}

	rises := DetectRises(tr, 1, testConfig())
	require.Len(t, rises, 1)
	assert.Equal(t, 124, rises[0].Start)
	assert.Equal(t, 723, rises[0].End)
	assert.InDelta(t, 517.98, rises[0].StartFreq, 1e-9)
	assert.InDelta(t, 506.0, rises[0].EndFreq, 1e-9)
}

func TestDetectRisesGapShiftsStart(t *testing.T) {
	t.Parallel()

	// A silence of more than three minutes separates the baseline from
	// the excursion; the rise start must move forward across the gap, to
	// the first sample after it.
	cfg := testConfig()
	tr := &Trajectory{Samples: make([]Sample, 350)}
	for i := 0; i < 10; i++ {
		tr.Set(i, 500)
	}
	tr.Set(210, 500)
	tr.Set(211, 510)
	tr.Set(212, 515)
	tr.Set(213, 520)
	for i := 214; i <= 313; i++ {
		tr.Set(i, 520-float64(i-213)*0.2)
	}
	for i := 314; i < 350; i++ {
		tr.Set(i, 500)
	}

	rises := DetectRises(tr, 1, cfg)
	require.Len(t, rises, 1)
	assert.Equal(t, 210, rises[0].Start)
	assert.Equal(t, 313, rises[0].End)
	assert.InDelta(t, 500.0, rises[0].StartFreq, 1e-9)
	assert.InDelta(t, 500.0, rises[0].EndFreq, 1e-6)
}
