package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// CheckInterval is the minimum wall-clock time between two staleness checks.
const CheckInterval = 2 * time.Second

// Snapshot is an immutable, fully built view of one loaded document.
// It is replaced as a whole on reload and never modified afterwards.
type Snapshot struct {
	Config *Config

	// Mappings is keyed by slider id. Later entries of a duplicated id win.
	Mappings map[uint8]Target
	// NamedApps is the union of all apps patterns, the exclusion set for unmapped targets.
	NamedApps []string
	// ModTime is the modification time of the file this snapshot was read from.
	ModTime time.Time
}

// NewSnapshot derives the lookup tables from cfg.
func NewSnapshot(cfg *Config, modTime time.Time) *Snapshot {
	s := &Snapshot{
		Config:   cfg,
		Mappings: make(map[uint8]Target, len(cfg.Sliders)),
		ModTime:  modTime,
	}

	last := make(map[uint8]int, len(cfg.Sliders))
	for i, slider := range cfg.Sliders {
		t := slider.Target
		if t.Kind == KindApps {
			t.Apps = cleanPatterns(t.Apps)
		}
		s.Mappings[slider.ID] = t
		last[slider.ID] = i
	}

	// Only the surviving entry of a duplicated id contributes patterns.
	seen := make(map[string]struct{})
	for i, slider := range cfg.Sliders {
		t := s.Mappings[slider.ID]
		if last[slider.ID] != i || t.Kind != KindApps {
			continue
		}
		for _, app := range t.Apps {
			if _, ok := seen[app]; ok {
				continue
			}
			seen[app] = struct{}{}
			s.NamedApps = append(s.NamedApps, app)
		}
	}

	return s
}

// Target returns the target mapped to slider id.
func (s *Snapshot) Target(id uint8) (Target, bool) {
	t, ok := s.Mappings[id]
	return t, ok
}

// VolumeStep returns the quantization step.
func (s *Snapshot) VolumeStep() float64 {
	return s.Config.General.VolumeStep
}

// cleanPatterns lowercases patterns and drops blank ones, which would
// otherwise match every process name.
func cleanPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Store owns the current Snapshot of a config file and reloads it when the
// file changes. Readers may call Current from any goroutine.
type Store struct {
	path     string
	interval time.Duration
	now      func() time.Time

	current atomic.Pointer[Snapshot]

	mu          sync.Mutex
	lastChecked time.Time
}

// Open loads path and returns a Store holding its snapshot.
// A missing or unparseable file is an error.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		interval: CheckInterval,
		now:      time.Now,
	}

	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	s.lastChecked = s.now()

	return s, nil
}

// NewStatic returns a Store that always serves snap and never reloads.
func NewStatic(snap *Snapshot) *Store {
	s := &Store{now: time.Now}
	s.current.Store(snap)
	return s
}

// SetCheckInterval changes the minimum time between staleness checks.
// Zero checks on every call.
func (s *Store) SetCheckInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// Path returns the file the store reads from.
func (s *Store) Path() string {
	return s.path
}

// Current returns the snapshot in force.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// ReloadIfStale re-reads the file when its modification time is newer than
// the one of the snapshot in force, checking at most once per CheckInterval.
// On failure the previous snapshot stays in force and the error is returned.
func (s *Store) ReloadIfStale() (bool, error) {
	if s.path == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastChecked) < s.interval {
		return false, nil
	}
	s.lastChecked = now

	info, err := os.Stat(s.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.ModTime().After(s.Current().ModTime) {
		return false, nil
	}

	snap, err := s.read()
	if err != nil {
		return false, err
	}
	s.current.Store(snap)

	return true, nil
}

func (s *Store) read() (*Snapshot, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Load(s.path)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(cfg, info.ModTime()), nil
}
