package tracker

import "github.com/jfsehuanes/thunderfish/internal/units"

// MinOccurrenceSteps returns the valid-sample threshold of the occurrence
// filter in steps: MinOccurrenceFraction of the recording duration, capped
// at one minute.
func (c Config) MinOccurrenceSteps(axis TimeAxis) float64 {
	minOccurMin := axis.DurationMinutes() * c.MinOccurrenceFraction
	if minOccurMin > 1.0 {
		minOccurMin = 1.0
	}
	return minOccurMin * units.StepsPerMinute(axis.Dt())
}

// FilterShort removes trajectories observed for too short a time to be a
// real source. It returns the number of trajectories removed. Applying it
// to its own output removes nothing.
func FilterShort(arena *Arena, axis TimeAxis, cfg Config) int {
	minSteps := cfg.MinOccurrenceSteps(axis)
	removed := 0
	for _, tr := range arena.Live() {
		if float64(tr.ValidCount()) < minSteps {
			arena.Remove(tr.ID)
			removed++
		}
	}
	return removed
}
