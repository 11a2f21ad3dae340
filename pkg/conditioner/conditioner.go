// Package conditioner turns noisy ADC samples into stable slider values.
//
// It uses integer arithmetic only and never allocates, so the same code runs
// on the microcontroller (TinyGo) and in the host-side simulator.
package conditioner

const (
	// Channels is the number of analog inputs on the slider board.
	Channels = 6
	// Threshold is the hysteresis band in raw ADC units. The smoothed reading
	// must move by more than this before the stable value follows.
	Threshold = 4

	// FullScale is the largest value a conditioner reports (10-bit ADC).
	FullScale = 1023
	// highEdge and lowEdge snap values near the rails to exact endpoints.
	highEdge = 1018
	lowEdge  = 5
)

// Conditioner filters a single channel.
// The zero value is ready to use.
type Conditioner struct {
	accumulator uint32 // EMA accumulator, holds 2x the smoothed value
	stable      uint16 // last committed value
}

// Update feeds one raw sample and returns the conditioned value in [0, FullScale].
//
// An accumulator of zero means "not seeded yet", so a raw 0 on the very first
// tick seeds again on the next one. Seeding from 0 gives 0 either way.
func (c *Conditioner) Update(raw uint16) uint16 {
	// Exponential moving average, weight 1/2.
	if c.accumulator == 0 {
		c.accumulator = uint32(raw) << 1
	} else {
		c.accumulator = c.accumulator - (c.accumulator >> 1) + uint32(raw)
	}

	smoothed := uint16(c.accumulator >> 1)

	diff := int32(smoothed) - int32(c.stable)
	if diff < 0 {
		diff = -diff
	}
	if diff > Threshold {
		c.stable = smoothed
	}

	switch {
	case c.stable > highEdge:
		return FullScale
	case c.stable < lowEdge:
		return 0
	default:
		return c.stable
	}
}

// Stable returns the last committed value before edge clamping.
func (c *Conditioner) Stable() uint16 {
	return c.stable
}

// Bank holds one conditioner per channel, indexed by channel id.
type Bank [Channels]Conditioner

// Update runs raw[i] through channel i and writes the result to out[i].
func (b *Bank) Update(raw *[Channels]uint16, out *[Channels]uint16) {
	for i := range b {
		out[i] = b[i].Update(raw[i])
	}
}
