package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate is the rate the slider firmware runs its UART at.
const DefaultBaudRate = 57600

// Serial opens real serial ports through go.bug.st/serial.
type Serial struct{}

// Enumerate lists the serial ports with USB details where available.
func (Serial) Enumerate() ([]Endpoint, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Endpoint, 0, len(ports))
	for _, p := range ports {
		result = append(result, Endpoint{
			Name:         p.Name,
			USB:          p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}

	return result, nil
}

// Open opens name at baudRate. Reads block for at most readTimeout.
func (Serial) Open(name string, baudRate int, readTimeout time.Duration) (Port, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
		}
	}

	return &serialPort{port: port}, nil
}

// serialPort maps go.bug.st/serial's timeout signal (0 bytes, nil error) to ErrTimeout.
type serialPort struct {
	port serial.Port
}

func (p *serialPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil {
		return n, err
	}
	if n == 0 && len(b) > 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

func (p *serialPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *serialPort) Close() error {
	return p.port.Close()
}
