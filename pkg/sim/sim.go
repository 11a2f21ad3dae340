package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/gain/pkg/link"
	"github.com/itohio/gain/pkg/transport"
)

const (
	// Name is the only endpoint the simulator exposes.
	Name = "sim0"

	// DefaultPeriod is the sweep period of the first slider.
	DefaultPeriod = 8 * time.Second
	// DefaultNoise is the peak ADC noise in counts.
	DefaultNoise = 3

	bufferSize = 256
)

var errClosed = errors.New("simulated port closed")

// Transport is a transport.Transport backed by a simulated board.
type Transport struct {
	Period   time.Duration
	Noise    float32
	Interval time.Duration // sampling interval, link.SampleInterval if zero
}

// Ensure Transport implements transport.Transport.
var _ transport.Transport = (*Transport)(nil)

// New creates a simulator with the default waveform.
func New() *Transport {
	return &Transport{
		Period: DefaultPeriod,
		Noise:  DefaultNoise,
	}
}

// Enumerate reports the single simulated USB endpoint.
func (t *Transport) Enumerate() ([]transport.Endpoint, error) {
	return []transport.Endpoint{{
		Name:    Name,
		USB:     true,
		VID:     "1209",
		PID:     "0001",
		Product: "gain simulator",
	}}, nil
}

// Open starts a simulated board. The baud rate is ignored.
func (t *Transport) Open(name string, _ int, readTimeout time.Duration) (transport.Port, error) {
	if name != Name {
		return nil, fmt.Errorf("failed to open serial port %s: no such simulated device", name)
	}

	interval := t.Interval
	if interval <= 0 {
		interval = link.SampleInterval
	}

	p := &Port{
		timeout: readTimeout,
		bytes:   make(chan byte, bufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	wave := NewWaveform(t.Period, t.Noise)
	go p.run(link.New(wave, p), wave, interval)

	return p, nil
}

// Port is an open simulated connection.
type Port struct {
	timeout time.Duration
	bytes   chan byte
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (p *Port) run(l *link.Link, wave *Waveform, interval time.Duration) {
	defer close(p.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			wave.Advance(interval)
			if _, err := l.Tick(); err != nil {
				return
			}
		}
	}
}

// WriteByte queues one byte from the device loop. It blocks while the host
// is not reading, like a full UART FIFO.
func (p *Port) WriteByte(b byte) error {
	select {
	case p.bytes <- b:
		return nil
	case <-p.done:
		return errClosed
	}
}

// Read returns the bytes sent by the board, waiting at most the read
// timeout for the first one.
func (p *Port) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	var timeout <-chan time.Time
	if p.timeout > 0 {
		t := time.NewTimer(p.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-p.done:
		return 0, errClosed
	case <-timeout:
		return 0, transport.ErrTimeout
	case b[0] = <-p.bytes:
	}

	n := 1
	for n < len(b) {
		select {
		case b[n] = <-p.bytes:
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// Write discards host to device traffic; the board has no commands.
func (p *Port) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, errClosed
	default:
		return len(b), nil
	}
}

// Close stops the board and waits for its loop to exit.
func (p *Port) Close() error {
	p.once.Do(func() { close(p.done) })
	<-p.stopped
	return nil
}
