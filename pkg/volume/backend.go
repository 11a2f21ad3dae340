// Package volume maps slider events to output levels and applies them
// through an audio Backend.
package volume

import "errors"

// ErrUnsupported is returned by a backend that cannot perform an operation
// on this system.
var ErrUnsupported = errors.New("operation not supported by audio backend")

// Session is one audio-producing stream.
type Session struct {
	ID   uint32 // backend handle passed back to SetSession
	PID  uint32 // owning process, 0 if unknown
	Name string // process name, e.g. "chrome.exe"
}

// Backend is the operating system's audio control. Levels are in [0, 1];
// a level of 0 mutes the target.
type Backend interface {
	SetMaster(level float64) error
	SetForeground(level float64) error
	Sessions() ([]Session, error)
	SetSession(id uint32, level float64) error
}

// Ensure backends implement Backend.
var (
	_ Backend = (*Mock)(nil)
	_ Backend = (*Pulse)(nil)
)
