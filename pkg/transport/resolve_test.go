package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listTransport struct {
	endpoints []Endpoint
	err       error
	calls     int
}

func (l *listTransport) Enumerate() ([]Endpoint, error) {
	l.calls++
	return l.endpoints, l.err
}

func (l *listTransport) Open(string, int, time.Duration) (Port, error) {
	return nil, errors.New("not used")
}

func TestResolve(t *testing.T) {
	endpoints := []Endpoint{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", USB: true, VID: "1A86", PID: "7523", Product: "USB Serial"},
		{Name: "/dev/ttyACM0", USB: true, VID: "2341", PID: "0043", SerialNumber: "95735333", Product: "Arduino Uno"},
	}

	tests := []struct {
		name    string
		port    string
		filter  Filter
		want    string
		wantErr error
	}{
		{name: "explicit name wins", port: "COM7", want: "COM7"},
		{name: "first usb port", want: "/dev/ttyUSB0"},
		{name: "vid filter", filter: Filter{VID: "2341"}, want: "/dev/ttyACM0"},
		{name: "vid filter ignores case", filter: Filter{VID: "1a86"}, want: "/dev/ttyUSB0"},
		{name: "vid and pid", filter: Filter{VID: "2341", PID: "0043"}, want: "/dev/ttyACM0"},
		{name: "serial number", filter: Filter{SerialNumber: "95735333"}, want: "/dev/ttyACM0"},
		{name: "product", filter: Filter{Product: "arduino uno"}, want: "/dev/ttyACM0"},
		{name: "no match", filter: Filter{VID: "FFFF"}, wantErr: ErrNoDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &listTransport{endpoints: endpoints}
			got, err := Resolve(tr, tt.port, tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_ExplicitNameSkipsEnumeration(t *testing.T) {
	tr := &listTransport{}
	_, err := Resolve(tr, "/dev/ttyACM1", Filter{})
	require.NoError(t, err)
	assert.Zero(t, tr.calls)
}

func TestResolve_EnumerationError(t *testing.T) {
	wantErr := errors.New("permission denied")
	tr := &listTransport{err: wantErr}
	_, err := Resolve(tr, "", Filter{})
	assert.ErrorIs(t, err, wantErr)
}

func TestResolve_NoPorts(t *testing.T) {
	_, err := Resolve(&listTransport{}, "", Filter{})
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestFilter_MatchRejectsNonUSB(t *testing.T) {
	assert.False(t, Filter{}.Match(Endpoint{Name: "/dev/ttyS0"}))
	assert.True(t, Filter{}.Match(Endpoint{Name: "/dev/ttyACM0", USB: true}))
}
