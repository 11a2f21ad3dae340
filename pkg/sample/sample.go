// Package sample keeps a short, time-windowed history of slider values
// for display.
package sample

import (
	"sync"
	"time"

	"github.com/itohio/gain/pkg/conditioner"
	"github.com/itohio/gain/pkg/config"
	"github.com/itohio/gain/pkg/frame"
	"github.com/itohio/gain/pkg/volume"
)

// DefaultWindow is the history length kept per slider.
const DefaultWindow = 30 * time.Second

// Sample is one received slider value.
type Sample struct {
	Timestamp time.Time
	Value     uint16  // raw slider value (0-1023)
	Level     float64 // output level it mapped to
}

// History holds the recent samples of every slider. Sliders only report
// changes, so a trace is a step function: a value holds until the next sample.
type History struct {
	window time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	traces [conditioner.Channels][]Sample
}

// NewHistory creates a history keeping window worth of samples per slider.
func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = DefaultWindow
	}
	return &History{window: window, now: time.Now}
}

// Window returns the history length.
func (h *History) Window() time.Duration {
	return h.window
}

// Handle records ev with the level it maps to under snap.
func (h *History) Handle(ev frame.Event, snap *config.Snapshot) error {
	general := snap.Config.General
	h.Add(ev.ID, Sample{
		Timestamp: h.now(),
		Value:     ev.Value,
		Level:     volume.Level(ev.Value, general.VolumeStep, general.InvertDirection),
	})
	return nil
}

// Add appends s to the trace of slider id and drops samples older than
// the window. Ids beyond the slider bank are ignored.
func (h *History) Add(id uint8, s Sample) {
	if int(id) >= len(h.traces) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	trace := append(h.traces[id], s)

	// Keep the newest sample older than the window: it still defines the
	// value at the left edge.
	cutoff := s.Timestamp.Add(-h.window)
	drop := 0
	for drop+1 < len(trace) && !trace[drop+1].Timestamp.After(cutoff) {
		drop++
	}
	if drop > 0 {
		trace = append(trace[:0], trace[drop:]...)
	}

	h.traces[id] = trace
}

// Trace copies the samples of slider id into dst and returns it.
func (h *History) Trace(dst []Sample, id uint8) []Sample {
	dst = dst[:0]
	if int(id) >= len(h.traces) {
		return dst
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return append(dst, h.traces[id]...)
}

// Last returns the newest sample of slider id.
func (h *History) Last(id uint8) (Sample, bool) {
	if int(id) >= len(h.traces) {
		return Sample{}, false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	trace := h.traces[id]
	if len(trace) == 0 {
		return Sample{}, false
	}
	return trace[len(trace)-1], true
}
