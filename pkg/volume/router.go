package volume

import (
	"fmt"
	"math"
	"strings"

	"github.com/itohio/gain/pkg/config"
	"github.com/itohio/gain/pkg/frame"
	"github.com/itohio/gain/pkg/metrics"
	"github.com/rs/zerolog"
)

// FullScale is the largest slider value.
const FullScale = 1023

// Snap rounds level to the nearest multiple of step and clamps it to [0, 1].
func Snap(level, step float64) float64 {
	if step > 0 {
		level = math.Round(level/step) * step
	}
	return math.Max(0, math.Min(1, level))
}

// Level converts a slider value to a quantized output level.
func Level(value uint16, step float64, invert bool) float64 {
	v := math.Min(float64(value), FullScale)
	if invert {
		v = FullScale - v
	}
	return Snap(v/FullScale, step)
}

// Router applies slider events to a Backend according to a config snapshot.
type Router struct {
	backend Backend
	log     zerolog.Logger
}

// NewRouter creates a Router.
func NewRouter(b Backend, log zerolog.Logger) *Router {
	return &Router{backend: b, log: log}
}

// Route computes the level for ev and sends it to the mapped target.
// An unmapped slider id is not an error. Failures of individual sessions are
// logged and skipped; only failures that affect the whole target are returned.
func (r *Router) Route(ev frame.Event, snap *config.Snapshot) error {
	target, ok := snap.Target(ev.ID)
	if !ok {
		r.log.Trace().Uint8("slider", ev.ID).Msg("unmapped slider")
		return nil
	}

	general := snap.Config.General
	level := Level(ev.Value, general.VolumeStep, general.InvertDirection)

	r.log.Debug().
		Uint8("slider", ev.ID).
		Uint16("value", ev.Value).
		Float64("level", level).
		Stringer("target", target).
		Msg("route")

	switch target.Kind {
	case config.KindMaster:
		if err := r.backend.SetMaster(level); err != nil {
			return fmt.Errorf("set master volume: %w", err)
		}

	case config.KindCurrent:
		if err := r.backend.SetForeground(level); err != nil {
			return fmt.Errorf("set foreground volume: %w", err)
		}

	case config.KindUnmapped:
		set, err := r.setSessions(ev.ID, level, func(name string) bool {
			return !containsAny(name, snap.NamedApps)
		})
		if err != nil || set == 0 {
			return err
		}

	case config.KindApps:
		if len(target.Apps) == 0 {
			return nil
		}
		set, err := r.setSessions(ev.ID, level, func(name string) bool {
			return containsAny(name, target.Apps)
		})
		if err != nil || set == 0 {
			return err
		}

	default:
		return fmt.Errorf("slider %d: unknown target %v", ev.ID, target.Kind)
	}

	metrics.VolumeSets.WithLabelValues(target.Kind.String()).Inc()
	return nil
}

// setSessions sets level on every session whose name passes match and
// returns how many were set.
func (r *Router) setSessions(id uint8, level float64, match func(name string) bool) (int, error) {
	sessions, err := r.backend.Sessions()
	if err != nil {
		return 0, fmt.Errorf("list audio sessions: %w", err)
	}

	set := 0
	for _, s := range sessions {
		if !match(strings.ToLower(s.Name)) {
			continue
		}
		if err := r.backend.SetSession(s.ID, level); err != nil {
			metrics.SessionFailures.Inc()
			r.log.Warn().Err(err).
				Uint8("slider", id).
				Str("app", s.Name).
				Uint32("session", s.ID).
				Msg("failed to set session volume")
			continue
		}
		set++
		r.log.Trace().Str("app", s.Name).Float64("level", level).Msg("set session volume")
	}

	return set, nil
}

// containsAny reports whether name contains any of the lowercase patterns.
func containsAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}
