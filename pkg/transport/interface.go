// Package transport abstracts the serial link to the slider board.
package transport

import (
	"errors"
	"io"
	"time"
)

var (
	// ErrTimeout is returned by Port.Read when the read timeout elapsed
	// without any data. The port is still usable.
	ErrTimeout = errors.New("read timeout")
	// ErrNoDevice is returned by Resolve when no endpoint matches.
	ErrNoDevice = errors.New("no matching serial device found")
)

// Endpoint describes one enumerated serial port.
type Endpoint struct {
	Name         string
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Port is an open connection. Read returns ErrTimeout when the configured
// read timeout elapses without data; any other error means the link is gone.
type Port interface {
	io.ReadWriteCloser
}

// Transport enumerates and opens ports.
type Transport interface {
	Enumerate() ([]Endpoint, error)
	Open(name string, baudRate int, readTimeout time.Duration) (Port, error)
}

// Ensure Serial implements Transport.
var _ Transport = (*Serial)(nil)
