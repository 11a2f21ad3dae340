package scope

import (
	"testing"
	"time"

	"github.com/itohio/gain/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func TestStepPoints(t *testing.T) {
	xMin := time.Unix(100, 0)
	xMax := xMin.Add(10 * time.Second)

	trace := []sample.Sample{
		{Timestamp: xMin.Add(-5 * time.Second), Level: 0.25}, // before the window
		{Timestamp: xMin.Add(5 * time.Second), Level: 0.75},
	}

	assert.Equal(t, []point{
		{t: 0, level: 0.25},
		{t: 0.5, level: 0.25},
		{t: 0.5, level: 0.75},
		{t: 1, level: 0.75},
	}, stepPoints(trace, xMin, xMax))
}

func TestStepPoints_Empty(t *testing.T) {
	now := time.Unix(100, 0)
	assert.Nil(t, stepPoints(nil, now, now.Add(time.Second)))
	assert.Nil(t, stepPoints([]sample.Sample{{Level: 1}}, now, now))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0%", formatLevel(0))
	assert.Equal(t, "75%", formatLevel(0.75))
	assert.Equal(t, "100%", formatLevel(1))
	assert.Equal(t, "now", formatAge(0))
	assert.Equal(t, "-30s", formatAge(30*time.Second))
}
