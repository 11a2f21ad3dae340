package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gain/pkg/conditioner"
	"github.com/itohio/gain/pkg/sample"
)

// Palette holds one trace color per slider.
var Palette = [conditioner.Channels]color.RGBA{
	{R: 255, G: 165, B: 0, A: 255},   // orange
	{R: 100, G: 200, B: 255, A: 255}, // light blue
	{R: 120, G: 220, B: 120, A: 255}, // green
	{R: 240, G: 100, B: 100, A: 255}, // red
	{R: 200, G: 140, B: 255, A: 255}, // violet
	{R: 230, G: 230, B: 110, A: 255}, // yellow
}

// ScopeWidget is a custom Fyne widget that plots the output level of every
// slider over the history window, oscilloscope style.
type ScopeWidget struct {
	widget.BaseWidget

	history *sample.History
	now     func() time.Time

	// Data (protected by mu)
	mu sync.RWMutex
	// Display buffers (reused between updates)
	raw    []sample.Sample
	traces [conditioner.Channels][]sample.Sample
	xMin   time.Time
	xMax   time.Time

	// Display settings
	maxDisplayPoints int
}

// New creates a new ScopeWidget showing h.
func New(h *sample.History) *ScopeWidget {
	s := &ScopeWidget{
		history:          h,
		now:              time.Now,
		maxDisplayPoints: 500, // Limit points for efficient rendering
	}
	for i := range s.traces {
		s.traces[i] = make([]sample.Sample, 0, s.maxDisplayPoints)
	}
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData pulls the current history and redraws.
// This should be called from the UI thread, e.g. through fyne.Do().
func (s *ScopeWidget) UpdateData() {
	s.mu.Lock()

	for i := range s.traces {
		s.raw = s.history.Trace(s.raw, uint8(i))
		s.traces[i] = sample.Downsample(s.traces[i], s.raw, s.maxDisplayPoints)
	}

	s.xMax = s.now()
	s.xMin = s.xMax.Add(-s.history.Window())

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
