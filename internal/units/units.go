// Package units provides shared conversions between wall-clock durations
// and detection-step counts on a uniformly spaced time axis.
package units

// StepsPerMinute returns the number of detection steps per minute for a
// time axis with spacing dt seconds ("dpm" throughout the tracker).
func StepsPerMinute(dt float64) float64 {
	return 60.0 / dt
}

// MinutesToSteps converts a duration in minutes to a step count.
func MinutesToSteps(minutes, dt float64) int {
	return int(minutes * StepsPerMinute(dt))
}

// SecondsToSteps converts a duration in seconds to a step count.
func SecondsToSteps(seconds, dt float64) int {
	return int(seconds / dt)
}

// StepsToMinutes converts a step count to a duration in minutes.
func StepsToMinutes(steps int, dt float64) float64 {
	return float64(steps) / StepsPerMinute(dt)
}

// StepsToSeconds converts a step count to a duration in seconds.
func StepsToSeconds(steps int, dt float64) float64 {
	return float64(steps) * dt
}
