package main

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gain/pkg/conditioner"
	"github.com/itohio/gain/pkg/config"
	"github.com/itohio/gain/pkg/frame"
	"github.com/itohio/gain/pkg/ingest"
	"github.com/itohio/gain/pkg/sample"
	"github.com/itohio/gain/pkg/scope"
	"github.com/itohio/gain/pkg/volume"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the volume pipeline with a live slider window",
	Long: `Run the same pipeline as 'gain run' and show one bar per slider with
the level it currently maps to, the target it controls and the connection
state, above a trace of the recent levels. Closing the window stops the
pipeline.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

// scopeUpdateInterval throttles scope redraws.
const scopeUpdateInterval = 100 * time.Millisecond

// monitorState holds the monitor widgets.
type monitorState struct {
	status  *widget.Label
	bars    [conditioner.Channels]*widget.ProgressBar
	targets [conditioner.Channels]*widget.Label

	history     *sample.History
	scopeWidget *scope.ScopeWidget
}

func newMonitorState() *monitorState {
	history := sample.NewHistory(sample.DefaultWindow)
	s := &monitorState{
		status:      widget.NewLabel(ingest.Disconnected.String()),
		history:     history,
		scopeWidget: scope.New(history),
	}
	for i := range s.bars {
		s.bars[i] = widget.NewProgressBar()
		s.targets[i] = widget.NewLabel("unmapped")
	}
	return s
}

// content lays out the status line, one row per slider and the scope.
func (s *monitorState) content() fyne.CanvasObject {
	rows := container.NewVBox(s.status)
	for i := range s.bars {
		name := canvas.NewText(fmt.Sprintf("Slider %d", i), scope.Palette[i])
		rows.Add(container.NewBorder(nil, nil, name, s.targets[i], s.bars[i]))
	}
	return container.NewBorder(rows, nil, nil, nil, s.scopeWidget)
}

// refreshScope redraws the scope every scopeUpdateInterval until ctx is done.
func (s *monitorState) refreshScope(ctx context.Context) {
	ticker := time.NewTicker(scopeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fyne.Do(s.scopeWidget.UpdateData)
		}
	}
}

// showTargets labels every slider with the target it maps to in snap.
func (s *monitorState) showTargets(snap *config.Snapshot) {
	for i, label := range s.targets {
		if target, ok := snap.Target(uint8(i)); ok {
			label.SetText(target.String())
		} else {
			label.SetText("unmapped")
		}
	}
}

// Handle shows the level of ev. Called from the ingest goroutine, so the
// widgets are only touched through fyne.Do().
func (s *monitorState) Handle(ev frame.Event, snap *config.Snapshot) error {
	if int(ev.ID) >= len(s.bars) {
		return nil
	}
	general := snap.Config.General
	level := volume.Level(ev.Value, general.VolumeStep, general.InvertDirection)

	fyne.Do(func() {
		s.bars[ev.ID].SetValue(level)
	})
	return nil
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	state := newMonitorState()

	p, err := newPipeline(state, state.history)
	if err != nil {
		return err
	}
	defer p.Close()

	state.showTargets(p.store.Current())
	p.ingest.OnState(func(s ingest.State) {
		fyne.Do(func() {
			state.status.SetText(s.String())
		})
	})
	p.ingest.OnConfig(func(snap *config.Snapshot) {
		fyne.Do(func() {
			state.showTargets(snap)
		})
	})

	application := app.NewWithID("com.itohio.gain")
	window := application.NewWindow("Gain")
	window.Resize(fyne.NewSize(640, 520))
	window.SetContent(state.content())

	ctx, cancel := signalContext()
	defer cancel()

	go state.refreshScope(ctx)

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
		// Interrupted from the terminal: close the window too.
		fyne.Do(application.Quit)
	}()

	window.SetOnClosed(cancel)
	window.ShowAndRun()

	cancel()
	return <-done
}
