package sample

import (
	"testing"
	"time"

	"github.com/itohio/gain/pkg/config"
	"github.com/itohio/gain/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Handle(t *testing.T) {
	now := time.Unix(1000, 0)
	h := NewHistory(time.Second)
	h.now = func() time.Time { return now }

	cfg := config.Default()
	cfg.General.VolumeStep = 0.1
	snap := config.NewSnapshot(cfg, time.Time{})

	require.NoError(t, h.Handle(frame.Event{ID: 2, Value: 505}, snap))

	last, ok := h.Last(2)
	require.True(t, ok)
	assert.Equal(t, Sample{Timestamp: now, Value: 505, Level: 0.5}, last)

	_, ok = h.Last(1)
	assert.False(t, ok)
}

func TestHistory_Window(t *testing.T) {
	start := time.Unix(1000, 0)
	h := NewHistory(time.Second)
	assert.Equal(t, time.Second, h.Window())

	for i := 0; i < 30; i++ {
		h.Add(0, Sample{Timestamp: start.Add(time.Duration(i) * 100 * time.Millisecond), Value: uint16(i)})
	}

	trace := h.Trace(nil, 0)
	// Newest is at 2.9s: keep 1.9s (the value at the left edge) through 2.9s.
	require.Len(t, trace, 11)
	assert.Equal(t, uint16(19), trace[0].Value)
	assert.Equal(t, uint16(29), trace[len(trace)-1].Value)
}

func TestHistory_KeepsValueAtLeftEdge(t *testing.T) {
	start := time.Unix(1000, 0)
	h := NewHistory(time.Second)

	h.Add(1, Sample{Timestamp: start, Value: 7})
	h.Add(1, Sample{Timestamp: start.Add(time.Minute), Value: 8})

	trace := h.Trace(nil, 1)
	require.Len(t, trace, 2, "the step before the window still defines the left edge")
	assert.Equal(t, uint16(7), trace[0].Value)
}

func TestHistory_IgnoresUnknownSlider(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultWindow, h.Window())

	h.Add(200, Sample{Value: 1})
	assert.Empty(t, h.Trace(nil, 200))
	_, ok := h.Last(200)
	assert.False(t, ok)
}

func TestHistory_TraceReusesDst(t *testing.T) {
	h := NewHistory(time.Second)
	h.Add(0, Sample{Timestamp: time.Unix(1, 0), Value: 1})

	dst := make([]Sample, 0, 16)
	trace := h.Trace(dst, 0)
	require.Len(t, trace, 1)
	assert.Equal(t, cap(dst), cap(trace))

	trace[0].Value = 99
	last, _ := h.Last(0)
	assert.Equal(t, uint16(1), last.Value, "Trace must return a copy")
}
