package tracker

import "fmt"

// Sample is a single slot of a trajectory: either a measured fundamental
// frequency or an explicit absent marker. No numeric sentinel is used for
// gaps, so any real frequency value is representable.
type Sample struct {
	Freq  float64
	Valid bool
}

// Rise records a transient frequency excursion within a trajectory:
// a rapid increase to StartFreq followed by a decay settling at EndFreq.
// Start < End always holds; both index the shared time axis.
type Rise struct {
	Start     int
	End       int
	StartFreq float64
	EndFreq   float64
}

// Trajectory is a time-ordered assignment of fundamental-frequency
// observations believed to originate from one physical source ("fish").
// Samples always has the same length as the time axis; Rises is ordered
// by start index.
type Trajectory struct {
	ID      int
	Samples []Sample
	Rises   []Rise
}

// Set stores a measured frequency at index i.
func (t *Trajectory) Set(i int, freq float64) {
	t.Samples[i] = Sample{Freq: freq, Valid: true}
}

// Clear marks index i as absent.
func (t *Trajectory) Clear(i int) {
	t.Samples[i] = Sample{}
}

// ClearFrom marks every index from i to the end as absent.
func (t *Trajectory) ClearFrom(i int) {
	for k := i; k < len(t.Samples); k++ {
		t.Samples[k] = Sample{}
	}
}

// ValidCount returns the number of measured samples.
func (t *Trajectory) ValidCount() int {
	n := 0
	for _, s := range t.Samples {
		if s.Valid {
			n++
		}
	}
	return n
}

// FirstValid returns the index of the first measured sample, or -1.
func (t *Trajectory) FirstValid() int {
	for i, s := range t.Samples {
		if s.Valid {
			return i
		}
	}
	return -1
}

// LastValid returns the index of the last measured sample, or -1.
func (t *Trajectory) LastValid() int {
	for i := len(t.Samples) - 1; i >= 0; i-- {
		if t.Samples[i].Valid {
			return i
		}
	}
	return -1
}

// ValidIndices returns the indices of all measured samples in order.
func (t *Trajectory) ValidIndices() []int {
	idx := make([]int, 0, len(t.Samples))
	for i, s := range t.Samples {
		if s.Valid {
			idx = append(idx, i)
		}
	}
	return idx
}

// OverlapCount returns the number of indices at which both trajectories
// hold a measured sample.
func (t *Trajectory) OverlapCount(other *Trajectory) int {
	n := 0
	for i, s := range t.Samples {
		if s.Valid && other.Samples[i].Valid {
			n++
		}
	}
	return n
}

// TimeAxis is the shared sequence of detection timestamps in seconds.
// It is strictly increasing with uniform spacing.
type TimeAxis []float64

// Dt returns the spacing between consecutive timestamps in seconds.
func (a TimeAxis) Dt() float64 {
	if len(a) < 2 {
		return 0
	}
	return a[1] - a[0]
}

// DurationMinutes returns the covered duration in minutes.
func (a TimeAxis) DurationMinutes() float64 {
	if len(a) < 2 {
		return 0
	}
	return (a[len(a)-1] - a[0]) / 60.0
}

// Validate checks that the axis is usable: at least two timestamps,
// strictly increasing, and uniformly spaced.
func (a TimeAxis) Validate() error {
	if len(a) < 2 {
		return fmt.Errorf("time axis needs at least 2 timestamps, got %d", len(a))
	}
	dt := a[1] - a[0]
	if dt <= 0 {
		return fmt.Errorf("time axis must be strictly increasing, got spacing %g", dt)
	}
	// Uniform spacing within a small relative tolerance; spectrogram
	// front-ends emit float timestamps with accumulated rounding.
	const relTol = 1e-6
	for i := 2; i < len(a); i++ {
		d := a[i] - a[i-1]
		if d <= 0 {
			return fmt.Errorf("time axis must be strictly increasing at index %d", i)
		}
		if diff := d - dt; diff > relTol*dt || diff < -relTol*dt {
			return fmt.Errorf("time axis spacing not uniform at index %d: %g vs %g", i, d, dt)
		}
	}
	return nil
}
