package transport

import (
	"fmt"
	"strings"
)

// Filter narrows auto-detection to a specific USB device.
// Empty fields match any value; comparisons ignore case.
type Filter struct {
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Match reports whether e is a USB endpoint accepted by f.
func (f Filter) Match(e Endpoint) bool {
	if !e.USB {
		return false
	}
	return matchField(f.VID, e.VID) &&
		matchField(f.PID, e.PID) &&
		matchField(f.SerialNumber, e.SerialNumber) &&
		matchField(f.Product, e.Product)
}

func matchField(want, got string) bool {
	return want == "" || strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(got))
}

// Resolve returns name when set, otherwise the first enumerated endpoint
// accepted by f.
func Resolve(t Transport, name string, f Filter) (string, error) {
	if name != "" {
		return name, nil
	}

	endpoints, err := t.Enumerate()
	if err != nil {
		return "", err
	}

	for _, e := range endpoints {
		if f.Match(e) {
			return e.Name, nil
		}
	}

	return "", fmt.Errorf("%w among %d ports", ErrNoDevice, len(endpoints))
}
