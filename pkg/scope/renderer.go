package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/gain/pkg/sample"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 200)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	// Size changed, trigger widget refresh to redraw with new dimensions
	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.scope.mu.RLock()
	defer r.scope.mu.RUnlock()

	// Clear old objects (but keep grid)
	r.objects = append(r.objects[:0], r.grid)

	// Calculate margins
	marginLeft := float32(45.0)
	marginRight := float32(15.0)
	marginTop := float32(15.0)
	marginBottom := float32(30.0)

	plot := plotArea{
		x:      marginLeft,
		y:      marginTop,
		width:  size.Width - marginLeft - marginRight,
		height: size.Height - marginTop - marginBottom,
	}

	r.drawGrid(plot, r.scope.xMax.Sub(r.scope.xMin))

	for i, trace := range r.scope.traces {
		r.drawTrace(plot, stepPoints(trace, r.scope.xMin, r.scope.xMax), Palette[i])
	}
}

// plotArea is the rectangle traces are drawn in.
type plotArea struct {
	x, y, width, height float32
}

// pos maps a normalized point (time 0..1 left to right, level 0..1
// bottom to top) into the plot area.
func (p plotArea) pos(pt point) fyne.Position {
	return fyne.NewPos(p.x+pt.t*p.width, p.y+p.height-pt.level*p.height)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(plot plotArea, window time.Duration) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	textColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	// Horizontal grid lines (level)
	numHLines := 4
	for i := range numHLines + 1 {
		y := plot.y + float32(i)*plot.height/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plot.x, y)
		line.Position2 = fyne.NewPos(plot.x+plot.width, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		// Y-axis label
		text := canvas.NewText(formatLevel(1-float64(i)/float64(numHLines)), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plot.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time, newest on the right)
	numVLines := 6
	for i := range numVLines + 1 {
		x := plot.x + float32(i)*plot.width/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, plot.y)
		line.Position2 = fyne.NewPos(x, plot.y+plot.height)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		// X-axis label
		age := window * time.Duration(numVLines-i) / time.Duration(numVLines)
		text := canvas.NewText(formatAge(age), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-15, plot.y+plot.height+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws connected line segments through points.
func (r *scopeRenderer) drawTrace(plot plotArea, points []point, c color.Color) {
	for i := range len(points) - 1 {
		line := canvas.NewLine(c)
		line.Position1 = plot.pos(points[i])
		line.Position2 = plot.pos(points[i+1])
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// point is a normalized plot coordinate.
type point struct {
	t, level float32
}

// stepPoints turns a trace into the polyline of a step function over
// [xMin, xMax]: each level holds until the next sample, the last one until
// xMax. Samples before xMin are clamped to the left edge.
func stepPoints(trace []sample.Sample, xMin, xMax time.Time) []point {
	span := xMax.Sub(xMin).Seconds()
	if len(trace) == 0 || span <= 0 {
		return nil
	}

	at := func(ts time.Time) float32 {
		t := ts.Sub(xMin).Seconds() / span
		return float32(max(0, min(1, t)))
	}

	points := make([]point, 0, 2*len(trace))
	for i, s := range trace {
		level := float32(s.Level)
		t := at(s.Timestamp)
		if i > 0 {
			// Vertical edge from the previous level.
			points = append(points, point{t: t, level: points[len(points)-1].level})
		}
		points = append(points, point{t: t, level: level})
	}
	return append(points, point{t: 1, level: points[len(points)-1].level})
}

// Helper functions for formatting

func formatLevel(level float64) string {
	return strconv.Itoa(int(level*100+0.5)) + "%"
}

func formatAge(d time.Duration) string {
	if d == 0 {
		return "now"
	}
	return "-" + strconv.FormatFloat(d.Seconds(), 'f', 0, 64) + "s"
}
