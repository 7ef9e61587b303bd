package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/steveyegge/cub/internal/counter"
)

// Memory is an in-process VersionedCounterStore for tests: same CAS
// contract as the git-backed store, no network or subprocesses. The
// optional PublishHook runs at the top of every Publish call, letting tests
// interleave a competing write to force conflicts deterministically.
type Memory struct {
	mu      sync.Mutex
	history []counter.State
	version int

	// PublishHook, when set, is invoked (outside the lock) before each
	// publish attempt is checked against the current tip.
	PublishHook func()
}

// NewMemory returns an uninitialized in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Initialize commits an all-zero state if none exists. Idempotent.
func (m *Memory) Initialize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		m.history = append(m.history, counter.State{})
		m.version = 1
	}
	return nil
}

// Initialized reports whether any state has been committed.
func (m *Memory) Initialized(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history) > 0, nil
}

// Read returns a copy of the state at the current tip.
func (m *Memory) Read(_ context.Context) (*counter.State, Tip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil, "", ErrUninitialized
	}
	state := m.history[len(m.history)-1]
	return &state, m.tipLocked(), nil
}

// Publish appends state if parent still names the current tip, otherwise
// returns ErrConflict.
func (m *Memory) Publish(_ context.Context, state *counter.State, parent Tip) (Tip, error) {
	if m.PublishHook != nil {
		m.PublishHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return "", ErrUninitialized
	}
	if parent != m.tipLocked() {
		return "", fmt.Errorf("%w: read %s, tip is %s", ErrConflict, parent, m.tipLocked())
	}
	m.history = append(m.history, *state)
	m.version++
	return m.tipLocked(), nil
}

// History returns a copy of every committed state, oldest first.
func (m *Memory) History() []counter.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]counter.State, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Memory) tipLocked() Tip {
	return Tip(fmt.Sprintf("mem-%d", m.version))
}
