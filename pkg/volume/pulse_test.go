package volume

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records commands and answers them from canned output.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string][]byte),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, cmd)
	if err, ok := f.errs[cmd]; ok {
		return nil, err
	}
	return f.outputs[cmd], nil
}

var errNoEntity = errors.New("no such entity")

// fakeServer answers pulse requests from a fixed sink input list and
// records every change as "<op> <index> <value>".
type fakeServer struct {
	mu     sync.Mutex
	inputs []*proto.GetSinkInputInfoReply
	fail   map[string]error
	calls  []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		inputs: []*proto.GetSinkInputInfoReply{
			sinkInput(41, 2, "application.name", "Firefox", "application.process.binary", "firefox", "application.process.id", "1200"),
			sinkInput(42, 2, "application.name", "Spotify", "application.process.id", "1300"),
			sinkInput(43, 1, "application.process.binary", "firefox", "application.process.id", "1200"),
		},
		fail: make(map[string]error),
	}
}

func sinkInput(index uint32, channels int, props ...string) *proto.GetSinkInputInfoReply {
	list := proto.PropList{}
	for i := 0; i+1 < len(props); i += 2 {
		list[props[i]] = proto.PropListString(props[i+1])
	}
	return &proto.GetSinkInputInfoReply{
		SinkInputIndex: index,
		ChannelVolumes: make(proto.ChannelVolumes, channels),
		Properties:     list,
	}
}

func (f *fakeServer) record(call string) error {
	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeServer) Request(req proto.RequestArgs, rpl proto.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r := req.(type) {
	case *proto.GetSinkInfo:
		if err := f.fail["get-sink"]; err != nil {
			return err
		}
		*rpl.(*proto.GetSinkInfoReply) = proto.GetSinkInfoReply{
			SinkIndex:      7,
			ChannelVolumes: make(proto.ChannelVolumes, 2),
		}
	case *proto.GetSinkInputInfoList:
		if err := f.fail["list"]; err != nil {
			return err
		}
		*rpl.(*proto.GetSinkInputInfoListReply) = append(proto.GetSinkInputInfoListReply(nil), f.inputs...)
	case *proto.GetSinkInputInfo:
		for _, in := range f.inputs {
			if in.SinkInputIndex == r.SinkInputIndex {
				*rpl.(*proto.GetSinkInputInfoReply) = *in
				return nil
			}
		}
		return errNoEntity
	case *proto.SetSinkMute:
		return f.record(fmt.Sprintf("sink-mute %d %t", r.SinkIndex, r.Mute))
	case *proto.SetSinkVolume:
		return f.record(fmt.Sprintf("sink-volume %d %v", r.SinkIndex, []uint32(r.ChannelVolumes)))
	case *proto.SetSinkInputMute:
		return f.record(fmt.Sprintf("input-mute %d %t", r.SinkInputIndex, r.Mute))
	case *proto.SetSinkInputVolume:
		return f.record(fmt.Sprintf("input-volume %d %v", r.SinkInputIndex, []uint32(r.ChannelVolumes)))
	default:
		return fmt.Errorf("unexpected request %T", req)
	}
	return nil
}

func (f *fakeServer) changes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestChannelVolumes(t *testing.T) {
	half := uint32(proto.VolumeNorm / 2)
	assert.Equal(t, proto.ChannelVolumes{half, half}, channelVolumes(2, 0.5))
	assert.Equal(t, proto.ChannelVolumes{uint32(proto.VolumeNorm)}, channelVolumes(0, 1))
	assert.Equal(t, proto.ChannelVolumes{0}, channelVolumes(1, 0))
}

func TestPulse_SetMaster(t *testing.T) {
	srv := newFakeServer()
	p := NewPulse(srv, newFakeRunner().run)

	require.NoError(t, p.SetMaster(0.25))
	quarter := proto.VolumeNorm / 4
	assert.Equal(t, []string{
		"sink-mute 7 false",
		fmt.Sprintf("sink-volume 7 [%d %d]", quarter, quarter),
	}, srv.changes())
}

func TestPulse_SetMasterMutesAtZero(t *testing.T) {
	srv := newFakeServer()
	p := NewPulse(srv, newFakeRunner().run)

	require.NoError(t, p.SetMaster(0))
	assert.Equal(t, "sink-mute 7 true", srv.changes()[0])
}

func TestPulse_SetMasterNoSink(t *testing.T) {
	srv := newFakeServer()
	srv.fail["get-sink"] = errNoEntity
	p := NewPulse(srv, newFakeRunner().run)

	assert.ErrorIs(t, p.SetMaster(0.5), errNoEntity)
	assert.Empty(t, srv.changes())
}

func TestPulse_Sessions(t *testing.T) {
	p := NewPulse(newFakeServer(), newFakeRunner().run)

	sessions, err := p.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []Session{
		{ID: 41, PID: 1200, Name: "firefox"},
		{ID: 42, PID: 1300, Name: "Spotify"},
		{ID: 43, PID: 1200, Name: "firefox"},
	}, sessions)
}

func TestPulse_SessionsListFails(t *testing.T) {
	srv := newFakeServer()
	srv.fail["list"] = errors.New("connection reset")
	p := NewPulse(srv, newFakeRunner().run)

	_, err := p.Sessions()
	assert.Error(t, err)
}

func TestPulse_SetSession(t *testing.T) {
	srv := newFakeServer()
	p := NewPulse(srv, newFakeRunner().run)

	require.NoError(t, p.SetSession(43, 0.5))
	assert.Equal(t, []string{
		"input-mute 43 false",
		fmt.Sprintf("input-volume 43 [%d]", proto.VolumeNorm/2),
	}, srv.changes())
}

func TestPulse_SetSessionError(t *testing.T) {
	srv := newFakeServer()
	srv.fail["input-mute 42 false"] = errNoEntity
	p := NewPulse(srv, newFakeRunner().run)

	assert.ErrorIs(t, p.SetSession(42, 0.7), errNoEntity)
	assert.Len(t, srv.changes(), 1)
}

func TestPulse_SetSessionGone(t *testing.T) {
	srv := newFakeServer()
	p := NewPulse(srv, newFakeRunner().run)

	assert.ErrorIs(t, p.SetSession(99, 0.7), errNoEntity)
	assert.Empty(t, srv.changes())
}

func TestPulse_SetForeground(t *testing.T) {
	f := newFakeRunner()
	f.outputs["xdotool getactivewindow getwindowpid"] = []byte("1200\n")
	srv := newFakeServer()
	p := NewPulse(srv, f.run)

	require.NoError(t, p.SetForeground(0.5))
	changes := srv.changes()
	assert.Contains(t, changes, "input-mute 41 false")
	assert.Contains(t, changes, "input-mute 43 false")
	assert.NotContains(t, changes, "input-mute 42 false")
}

func TestPulse_SetForegroundContinuesAfterFailure(t *testing.T) {
	f := newFakeRunner()
	f.outputs["xdotool getactivewindow getwindowpid"] = []byte("1200\n")
	srv := newFakeServer()
	srv.fail["input-mute 41 false"] = errNoEntity
	p := NewPulse(srv, f.run)

	err := p.SetForeground(0.5)
	assert.ErrorIs(t, err, errNoEntity)
	assert.Contains(t, srv.changes(), fmt.Sprintf("input-volume 43 [%d]", proto.VolumeNorm/2),
		"the other session of the focused process still gets the level")
}

func TestPulse_SetForegroundNoWindow(t *testing.T) {
	f := newFakeRunner()
	f.outputs["xdotool getactivewindow getwindowpid"] = []byte("")
	srv := newFakeServer()
	p := NewPulse(srv, f.run)

	require.NoError(t, p.SetForeground(0.5))
	assert.Len(t, f.calls, 1)
	assert.Empty(t, srv.changes())
}

func TestPulse_SetForegroundUnsupported(t *testing.T) {
	f := newFakeRunner()
	f.errs["xdotool getactivewindow getwindowpid"] = ErrUnsupported
	p := NewPulse(newFakeServer(), f.run)

	assert.ErrorIs(t, p.SetForeground(0.5), ErrUnsupported)
}

func TestPulse_CloseWithoutConnection(t *testing.T) {
	assert.NoError(t, NewPulse(newFakeServer(), nil).Close())
}
