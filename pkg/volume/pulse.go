package volume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jfreymuth/pulse/proto"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Client issues PulseAudio protocol requests. *proto.Client implements it.
type Client interface {
	Request(req proto.RequestArgs, rpl proto.Reply) error
}

// defaultSink names the server's default sink.
const defaultSink = "@DEFAULT_SINK@"

// Pulse controls PulseAudio, or PipeWire through pipewire-pulse, over the
// native protocol. The foreground window is resolved with xdotool when it
// is installed.
type Pulse struct {
	client  Client
	conn    io.Closer
	run     Runner
	timeout time.Duration
}

// ConnectPulse connects to the default pulse server and registers as
// application name. A nil run uses ExecRunner.
func ConnectPulse(name string, run Runner) (*Pulse, error) {
	client, conn, err := proto.Connect("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pulse server: %w", err)
	}

	request := proto.SetClientName{
		Props: proto.PropList{
			"application.name": proto.PropListString(name),
		},
	}
	if err := client.Request(&request, &proto.SetClientNameReply{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to register pulse client: %w", err)
	}

	p := NewPulse(client, run)
	p.conn = conn
	return p, nil
}

// NewPulse creates a backend on an established client. A nil run uses ExecRunner.
func NewPulse(client Client, run Runner) *Pulse {
	if run == nil {
		run = ExecRunner
	}
	return &Pulse{client: client, run: run, timeout: 2 * time.Second}
}

// Close closes the server connection.
func (p *Pulse) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func (p *Pulse) exec(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.run(ctx, name, args...)
}

// channelVolumes spreads level over n channels. Streams report at least one.
func channelVolumes(n int, level float64) proto.ChannelVolumes {
	n = max(n, 1)
	v := uint32(math.Round(level * float64(proto.VolumeNorm)))

	volumes := make(proto.ChannelVolumes, n)
	for i := range volumes {
		volumes[i] = v
	}
	return volumes
}

// SetMaster sets the default sink volume.
func (p *Pulse) SetMaster(level float64) error {
	info := proto.GetSinkInfoReply{}
	if err := p.client.Request(&proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: defaultSink}, &info); err != nil {
		return fmt.Errorf("get default sink: %w", err)
	}

	if err := p.client.Request(&proto.SetSinkMute{SinkIndex: info.SinkIndex, Mute: level <= 0}, nil); err != nil {
		return fmt.Errorf("mute sink %d: %w", info.SinkIndex, err)
	}
	request := proto.SetSinkVolume{
		SinkIndex:      info.SinkIndex,
		ChannelVolumes: channelVolumes(len(info.ChannelVolumes), level),
	}
	if err := p.client.Request(&request, nil); err != nil {
		return fmt.Errorf("set sink %d volume: %w", info.SinkIndex, err)
	}
	return nil
}

// SetForeground sets the volume of all sessions owned by the focused window's
// process. A session that fails does not stop the others; the failures are
// returned together.
func (p *Pulse) SetForeground(level float64) error {
	out, err := p.exec("xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		return err
	}
	pid, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 32)
	if err != nil || pid == 0 {
		// No focused window with a known process.
		return nil
	}

	sessions, err := p.Sessions()
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range sessions {
		if s.PID != uint32(pid) {
			continue
		}
		if err := p.SetSession(s.ID, level); err != nil {
			errs = append(errs, fmt.Errorf("session %d (%s): %w", s.ID, s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// prop returns a property list entry as a string.
func prop(props proto.PropList, key string) string {
	return strings.TrimRight(string(props[key]), "\x00")
}

// Sessions lists the active sink inputs.
func (p *Pulse) Sessions() ([]Session, error) {
	reply := proto.GetSinkInputInfoListReply{}
	if err := p.client.Request(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("get sink input list: %w", err)
	}

	sessions := make([]Session, 0, len(reply))
	for _, info := range reply {
		name := prop(info.Properties, "application.process.binary")
		if name == "" {
			name = prop(info.Properties, "application.name")
		}
		pid, _ := strconv.ParseUint(prop(info.Properties, "application.process.id"), 10, 32)

		sessions = append(sessions, Session{
			ID:   info.SinkInputIndex,
			PID:  uint32(pid),
			Name: name,
		})
	}
	return sessions, nil
}

// SetSession sets the volume of one sink input.
func (p *Pulse) SetSession(id uint32, level float64) error {
	info := proto.GetSinkInputInfoReply{}
	if err := p.client.Request(&proto.GetSinkInputInfo{SinkInputIndex: id}, &info); err != nil {
		return fmt.Errorf("get sink input %d: %w", id, err)
	}

	if err := p.client.Request(&proto.SetSinkInputMute{SinkInputIndex: id, Mute: level <= 0}, nil); err != nil {
		return fmt.Errorf("mute sink input %d: %w", id, err)
	}
	request := proto.SetSinkInputVolume{
		SinkInputIndex: id,
		ChannelVolumes: channelVolumes(len(info.ChannelVolumes), level),
	}
	if err := p.client.Request(&request, nil); err != nil {
		return fmt.Errorf("set sink input %d volume: %w", id, err)
	}
	return nil
}
