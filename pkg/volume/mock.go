package volume

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Mock is an in-memory backend. It records every level it is given and can
// be told to fail individual sessions. It is safe for concurrent use.
type Mock struct {
	log zerolog.Logger

	mu         sync.Mutex
	master     float64
	foreground float64
	focused    uint32 // session id owning the foreground, 0 if none
	sessions   []Session
	levels     map[uint32]float64
	failing    map[uint32]error
	calls      int
}

// NewMock creates a mock backend with the given sessions.
func NewMock(log zerolog.Logger, sessions ...Session) *Mock {
	return &Mock{
		log:      log,
		master:   -1,
		sessions: sessions,
		levels:   make(map[uint32]float64),
		failing:  make(map[uint32]error),
	}
}

// SetMaster records the master level.
func (m *Mock) SetMaster(level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.master = level
	m.log.Info().Float64("level", level).Msg("master volume")
	return nil
}

// SetForeground sets the level of the focused session, if any.
func (m *Mock) SetForeground(level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.foreground = level
	if m.focused == 0 {
		return nil
	}
	m.levels[m.focused] = level
	m.log.Info().Uint32("session", m.focused).Float64("level", level).Msg("foreground volume")
	return nil
}

// Sessions returns a copy of the configured sessions.
func (m *Mock) Sessions() ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, len(m.sessions))
	copy(out, m.sessions)
	return out, nil
}

// SetSession records the level of session id.
func (m *Mock) SetSession(id uint32, level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if err, ok := m.failing[id]; ok {
		return err
	}
	for _, s := range m.sessions {
		if s.ID == id {
			m.levels[id] = level
			m.log.Info().Str("app", s.Name).Float64("level", level).Msg("session volume")
			return nil
		}
	}
	return fmt.Errorf("session %d not found", id)
}

// Fail makes SetSession(id) return err.
func (m *Mock) Fail(id uint32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[id] = err
}

// Focus marks session id as owning the foreground window.
func (m *Mock) Focus(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = id
}

// Master returns the last master level, or -1 if never set.
func (m *Mock) Master() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.master
}

// Level returns the last level set on session id.
func (m *Mock) Level(id uint32) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	level, ok := m.levels[id]
	return level, ok
}

// Touched returns the ids of all sessions that received a level, sorted.
func (m *Mock) Touched() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint32, 0, len(m.levels))
	for id := range m.levels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Calls returns the number of set operations performed.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
