package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepsPerMinute(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 60.0, StepsPerMinute(1.0), 1e-12)
	assert.InDelta(t, 120.0, StepsPerMinute(0.5), 1e-12)
	assert.InDelta(t, 30.0, StepsPerMinute(2.0), 1e-12)
}

func TestMinutesToSteps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 60, MinutesToSteps(1.0, 1.0))
	assert.Equal(t, 600, MinutesToSteps(10.0, 1.0))
	assert.Equal(t, 1200, MinutesToSteps(5.0, 0.25))
}

func TestSecondsToSteps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, SecondsToSteps(10.0, 1.0))
	assert.Equal(t, 40, SecondsToSteps(10.0, 0.25))
	assert.Equal(t, 0, SecondsToSteps(0.5, 1.0))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	dt := 0.5
	assert.InDelta(t, 3.0, StepsToMinutes(MinutesToSteps(3.0, dt), dt), 1e-12)
	assert.InDelta(t, 45.0, StepsToSeconds(SecondsToSteps(45.0, dt), dt), 1e-12)
}
