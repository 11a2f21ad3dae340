// Package ingest owns the serial connection to the slider board: it connects,
// splits the byte stream into frames, decodes them and hands the events to
// its handlers, reconnecting whenever the link is lost.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/gain/pkg/config"
	"github.com/itohio/gain/pkg/frame"
	"github.com/itohio/gain/pkg/metrics"
	"github.com/itohio/gain/pkg/transport"
	"github.com/rs/zerolog"
)

const (
	// DefaultRetryDelay is the pause between two connection attempts.
	DefaultRetryDelay = 5 * time.Second
	// DefaultReadTimeout bounds a single blocking read on a silent line.
	DefaultReadTimeout = 30 * time.Second

	// readBufferSize comfortably exceeds frame.MaxFrameSize. Longer runs
	// without a delimiter are dropped as malformed.
	readBufferSize = 64
)

// State is the connection state of the ingest loop.
type State int32

const (
	Disconnected State = iota
	Connecting
	Streaming
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Handler consumes decoded slider events together with the configuration
// snapshot in force when the event arrived.
type Handler interface {
	Handle(ev frame.Event, snap *config.Snapshot) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev frame.Event, snap *config.Snapshot) error

// Handle calls f.
func (f HandlerFunc) Handle(ev frame.Event, snap *config.Snapshot) error {
	return f(ev, snap)
}

// Ingest runs the connect, read, decode and dispatch cycle.
type Ingest struct {
	transport transport.Transport
	store     *config.Store
	handlers  []Handler
	log       zerolog.Logger
	port      string

	state atomic.Int32

	mu       sync.Mutex
	onState  []func(State)
	onConfig []func(*config.Snapshot)
}

// New creates an Ingest reading from t with configuration from s.
func New(t transport.Transport, s *config.Store, log zerolog.Logger, h ...Handler) *Ingest {
	return &Ingest{
		transport: t,
		store:     s,
		handlers:  h,
		log:       log,
	}
}

// State returns the current connection state.
func (in *Ingest) State() State {
	return State(in.state.Load())
}

// SetPort makes every connection attempt use name instead of the configured
// port. It must be called before Run.
func (in *Ingest) SetPort(name string) {
	in.port = name
}

// OnState registers fn to be called on every state transition.
// It must be called before Run.
func (in *Ingest) OnState(fn func(State)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onState = append(in.onState, fn)
}

// OnConfig registers fn to be called after every successful configuration
// reload. It must be called before Run.
func (in *Ingest) OnConfig(fn func(*config.Snapshot)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onConfig = append(in.onConfig, fn)
}

func (in *Ingest) setState(s State) {
	if State(in.state.Swap(int32(s))) == s {
		return
	}
	metrics.IngestState.Set(float64(s))
	in.log.Debug().Stringer("state", s).Msg("ingest state")

	in.mu.Lock()
	listeners := in.onState
	in.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Run drives the loop until ctx is done. It never returns on its own;
// every failure is logged and retried. Cancelling ctx closes the open port.
func (in *Ingest) Run(ctx context.Context) error {
	defer in.setState(Disconnected)

	for {
		in.reload()

		conn := in.store.Current().Config.Connection
		if in.port != "" {
			conn.Port = in.port
		}

		in.setState(Connecting)
		port, name, err := in.connect(conn)
		if err != nil {
			metrics.ConnectFailures.Inc()
			in.log.Warn().Err(err).Msg("failed to connect to slider board")
		} else {
			metrics.Connects.Inc()
			in.log.Info().Str("port", name).Msg("listening for slider data")
			in.setState(Streaming)

			err = in.stream(ctx, port)

			if ctx.Err() == nil {
				metrics.Disconnects.Inc()
				in.log.Error().Err(err).Str("port", name).Msg("serial connection lost")
			}
		}

		in.setState(Disconnected)
		if !sleep(ctx, retryDelay(conn)) {
			return nil
		}
	}
}

// connect resolves and opens the endpoint described by conn.
func (in *Ingest) connect(conn config.ConnectionConfig) (transport.Port, string, error) {
	filter := transport.Filter{
		VID:          conn.VID,
		PID:          conn.PID,
		SerialNumber: conn.SerialNumber,
		Product:      conn.Product,
	}
	if conn.Port == "" {
		in.log.Info().Msg("no port specified, scanning for USB devices")
	}

	name, err := transport.Resolve(in.transport, conn.Port, filter)
	if err != nil {
		return nil, "", err
	}

	readTimeout := conn.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	in.log.Info().Str("port", name).Int("baud", conn.BaudRate).Msg("connecting")
	port, err := in.transport.Open(name, conn.BaudRate, readTimeout)
	if err != nil {
		return nil, name, err
	}
	return port, name, nil
}

// stream reads frames from port until a non-timeout error occurs, then
// closes it. Cancelling ctx closes the port to unblock the pending read.
func (in *Ingest) stream(ctx context.Context, port transport.Port) error {
	stop := context.AfterFunc(ctx, func() {
		port.Close()
	})
	defer func() {
		// stop reports false once the cancel hook has run and closed the port.
		if stop() {
			port.Close()
		}
	}()

	r := bufio.NewReaderSize(port, readBufferSize)
	for {
		data, err := r.ReadSlice(frame.Delimiter)
		switch {
		case err == nil:
		case errors.Is(err, transport.ErrTimeout):
			// A partial frame is discarded; the next one starts clean.
			continue
		case errors.Is(err, bufio.ErrBufferFull):
			metrics.FramesMalformed.Inc()
			in.log.Warn().Int("bytes", len(data)).Msg("dropping oversized frame")
			continue
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		in.reload()
		in.dispatch(data)
	}
}

// dispatch decodes one delimited frame and passes it to the handlers.
func (in *Ingest) dispatch(data []byte) {
	ev, err := frame.Decode(data)
	if err != nil {
		metrics.FramesMalformed.Inc()
		in.log.Warn().Err(err).Int("bytes", len(data)).Msg("deserialization failed")
		return
	}
	metrics.FramesDecoded.Inc()
	metrics.ObserveSlider(ev.ID, ev.Value)

	snap := in.store.Current()
	for _, h := range in.handlers {
		if err := h.Handle(ev, snap); err != nil {
			in.log.Warn().Err(err).Uint8("slider", ev.ID).Uint16("value", ev.Value).Msg("failed to handle slider event")
		}
	}
}

// reload gives the store a chance to pick up an edited file.
func (in *Ingest) reload() {
	reloaded, err := in.store.ReloadIfStale()
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("error").Inc()
		in.log.Warn().Err(err).Str("path", in.store.Path()).Msg("config reload failed, keeping previous configuration")
		return
	}
	if !reloaded {
		return
	}

	metrics.ConfigReloads.WithLabelValues("ok").Inc()
	snap := in.store.Current()
	in.log.Info().Str("path", in.store.Path()).Int("sliders", len(snap.Mappings)).Msg("config reloaded")

	in.mu.Lock()
	listeners := in.onConfig
	in.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func retryDelay(conn config.ConnectionConfig) time.Duration {
	if conn.RetryDelay > 0 {
		return conn.RetryDelay
	}
	return DefaultRetryDelay
}

// sleep waits for d and reports whether ctx is still alive.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
