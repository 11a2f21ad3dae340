// Package link is the device-side loop: sample every channel, condition it,
// and send a frame for each channel whose stable value changed.
//
// Link never allocates after construction and has no goroutines, so it can
// run as the firmware main loop under TinyGo.
package link

import (
	"io"
	"time"

	"github.com/itohio/gain/pkg/conditioner"
	"github.com/itohio/gain/pkg/frame"
)

// SampleInterval is the delay between two sampling passes. It bounds both
// the sample rate and the serial throughput.
const SampleInterval = 25 * time.Millisecond

// Sampler reads one raw ADC value from the given channel.
type Sampler interface {
	Sample(channel int) uint16
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(channel int) uint16

// Sample calls f(channel).
func (f SamplerFunc) Sample(channel int) uint16 { return f(channel) }

// Link turns samples into frames on w.
type Link struct {
	sampler Sampler
	w       io.ByteWriter
	sleep   func(time.Duration)

	bank conditioner.Bank
	raw  [conditioner.Channels]uint16
	out  [conditioner.Channels]uint16
	sent [conditioner.Channels]uint16 // last value transmitted per channel
	buf  []byte
}

// New creates a Link reading from s and writing frames to w.
// WriteByte is expected to block until the transport accepts the byte.
func New(s Sampler, w io.ByteWriter) *Link {
	return &Link{
		sampler: s,
		w:       w,
		sleep:   time.Sleep,
		buf:     make([]byte, frame.MaxFrameSize),
	}
}

// Run sleeps SampleInterval and calls Tick, forever.
// Write errors are dropped; the next change of the channel resends it.
func (l *Link) Run() {
	for {
		l.sleep(SampleInterval)
		_, _ = l.Tick()
	}
}

// Tick performs one sampling pass and returns the number of frames written.
func (l *Link) Tick() (int, error) {
	for ch := range l.raw {
		l.raw[ch] = l.sampler.Sample(ch)
	}
	l.bank.Update(&l.raw, &l.out)

	sent := 0
	for ch, value := range l.out {
		if value == l.sent[ch] {
			continue
		}

		encoded, err := frame.Encode(l.buf, frame.Event{ID: uint8(ch), Value: value})
		if err != nil {
			// Baseline is kept, so the change is retried on the next tick.
			continue
		}
		l.sent[ch] = value

		for _, b := range encoded {
			if err := l.w.WriteByte(b); err != nil {
				return sent, err
			}
		}
		sent++
	}

	return sent, nil
}

// Last returns the value most recently transmitted for channel ch.
func (l *Link) Last(ch int) uint16 {
	return l.sent[ch]
}
