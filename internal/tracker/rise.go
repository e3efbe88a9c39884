package tracker

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jfsehuanes/thunderfish/internal/units"
)

// riseScan holds the window constants of one detection run, converted from
// wall-clock tunables to step counts on the trajectory's time axis.
type riseScan struct {
	tr  *Trajectory
	cfg Config

	peakSteps      float64 // every sample this far after a peak must stay below it
	minPeakSamples float64 // minimum valid samples inside the peak window (1 s worth)
	endSteps       float64 // stopped-dropping / plateau window
	maxRiseSteps   float64 // abort an end candidate beyond this peak distance
	gapSteps       float64 // gap length that shifts the rise start forward
	lookbackSteps  float64 // how far before the peak gaps are searched
}

// DetectRises scans one trajectory for frequency excursions and returns
// them in index order. The scan operates only on valid samples; gaps are
// skipped, not interpolated.
//
// The detector is a three-phase state machine. A candidate peak is an
// index whose value strictly exceeds every valid sample in the following
// PeakWindowSecs. From the peak it walks forward looking for the excursion
// end: an index from which the frequency has stopped dropping for
// EndWindowSecs, or whose EndWindowSecs median is within
// PlateauToleranceHz (plateau), or the last valid index. An end candidate
// is abandoned when the frequency climbs back above the peak or the
// peak-to-end span exceeds MaxRiseDurationMin. An accepted rise must drop
// by RiseFrequencyThreshold, growing by another threshold step for every
// EndWindowSecs of excursion duration. After acceptance the scan resumes
// strictly after the excursion end.
func DetectRises(tr *Trajectory, dt float64, cfg Config) []Rise {
	dpm := units.StepsPerMinute(dt)
	s := &riseScan{
		tr:             tr,
		cfg:            cfg,
		peakSteps:      cfg.PeakWindowSecs / dt,
		minPeakSamples: 1.0 / dt,
		endSteps:       cfg.EndWindowSecs / dt,
		maxRiseSteps:   cfg.MaxRiseDurationMin * dpm,
		gapSteps:       cfg.GapShiftMin * dpm,
		lookbackSteps:  cfg.MaxRiseDurationMin * dpm,
	}

	valid := tr.ValidIndices()
	var rises []Rise
	for len(valid) > 1 && float64(valid[len(valid)-1]-valid[0]) > s.peakSteps+1 {
		r, rest := s.detectSingle(valid)
		if r == nil {
			break
		}
		rises = append(rises, *r)
		valid = rest
	}
	return rises
}

func (s *riseScan) freq(idx int) float64 { return s.tr.Samples[idx].Freq }

// window returns the positions q > pos whose index falls within span steps
// after valid[pos].
func (s *riseScan) window(valid []int, pos int, span float64) []int {
	var out []int
	limit := float64(valid[pos]) + span
	for q := pos + 1; q < len(valid) && float64(valid[q]) < limit; q++ {
		out = append(out, q)
	}
	return out
}

// detectSingle finds the earliest rise in the remaining valid span. It
// returns the rise and the valid positions strictly after its end, or nil
// when the span holds no further rise.
func (s *riseScan) detectSingle(valid []int) (*Rise, []int) {
	n := len(valid)
	last := valid[n-1]

	for i := 0; i < n; i++ {
		if float64(valid[i]) > float64(last)-s.peakSteps {
			break // too close to the end for a full peak window
		}
		win := s.window(valid, i, s.peakSteps)
		if float64(len(win)) < s.minPeakSamples {
			continue
		}
		peak := s.freq(valid[i])
		isPeak := true
		for _, p := range win {
			if s.freq(valid[p]) >= peak {
				isPeak = false
				break
			}
		}
		if !isPeak {
			continue
		}

		for j := i + 1; j < n; j++ {
			if s.freq(valid[j]) >= peak {
				break // climbed back above the peak: not a decaying excursion
			}
			if float64(valid[j]-valid[i]) >= s.maxRiseSteps {
				break
			}

			endVal := s.freq(valid[j])
			win2 := s.window(valid, j, s.endSteps)
			stopped := true
			for _, q := range win2 {
				if s.freq(valid[q]) < endVal {
					stopped = false
					break
				}
			}
			plateau := false
			if len(win2) > 0 {
				freqs := make([]float64, len(win2))
				for k, q := range win2 {
					freqs[k] = s.freq(valid[q])
				}
				sort.Float64s(freqs)
				med := stat.Quantile(0.5, stat.LinInterp, freqs, nil)
				plateau = endVal-med < s.cfg.PlateauToleranceHz
			}

			if !stopped && valid[j] != last && !plateau {
				continue
			}

			span := float64(valid[j] - valid[i])
			threshold := s.cfg.RiseFrequencyThreshold * (1 + math.Floor(span/s.endSteps))
			if peak-endVal < threshold {
				break // too shallow: restart the peak search further on
			}

			start := s.shiftStartAcrossGap(valid, i)
			return &Rise{
				Start:     start,
				End:       valid[j],
				StartFreq: s.freq(start),
				EndFreq:   endVal,
			}, valid[j+1:]
		}
	}
	return nil, nil
}

// shiftStartAcrossGap moves the rise start forward to the first valid
// sample after the most recent gap of at least GapShiftMin minutes in the
// lookback window preceding the peak, so an excursion is never attributed
// across silence. Without such a gap the peak index is kept.
func (s *riseScan) shiftStartAcrossGap(valid []int, i int) int {
	lo := float64(valid[i]) - s.lookbackSteps
	for p := i; p > 0 && float64(valid[p]) > lo; p-- {
		if float64(valid[p]-valid[p-1]) >= s.gapSteps {
			return valid[p]
		}
	}
	return valid[i]
}
