// Package sim simulates the slider board so the host pipeline runs without
// hardware. The simulated port runs the real device loop over synthetic
// slider positions.
package sim

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/gain/pkg/conditioner"
)

const fullScale = float32(conditioner.FullScale)

// Waveform produces slider positions: each channel sweeps a sine with its own
// phase, plus uniform ADC noise. A zero Period holds every channel still.
type Waveform struct {
	Period time.Duration // time for one full sweep of channel 0
	Noise  float32       // peak noise in ADC counts

	mu      sync.Mutex
	elapsed time.Duration
	rng     *rand.Rand
}

// NewWaveform creates a waveform with a fixed seed.
func NewWaveform(period time.Duration, noise float32) *Waveform {
	return &Waveform{
		Period: period,
		Noise:  noise,
		rng:    rand.New(rand.NewPCG(1, 2)),
	}
}

// Advance moves the waveform forward by dt.
func (w *Waveform) Advance(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.elapsed += dt
}

// Sample returns the raw reading of channel.
func (w *Waveform) Sample(channel int) uint16 {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Resting position spreads the channels over the full range.
	phase := float32(channel) / float32(conditioner.Channels-1) * math32.Pi
	level := 0.5 - 0.5*math32.Cos(phase)

	if w.Period > 0 {
		// Channels sweep progressively slower so they rarely move together.
		period := float32(w.Period.Seconds()) * float32(channel+1)
		t := float32(w.elapsed.Seconds())
		level = 0.5 + 0.5*math32.Sin(2*math32.Pi*t/period+phase)
	}

	v := level * fullScale
	if w.Noise > 0 && w.rng != nil {
		v += (w.rng.Float32()*2 - 1) * w.Noise
	}

	return uint16(math32.Round(math32.Max(0, math32.Min(fullScale, v))))
}
