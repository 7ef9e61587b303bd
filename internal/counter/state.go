// Package counter holds the persisted records of the allocation subsystem:
// the shared counter state stored on the sync branch, and the per-checkout
// sync bookkeeping that never leaves the local machine.
package counter

import (
	"encoding/json"
	"fmt"
	"time"
)

// Counter names accepted by the allocation protocol.
const (
	// Spec is the specification number counter.
	Spec = "spec"

	// Standalone is the standalone task number counter.
	Standalone = "standaloneTask"
)

// FileName is the fixed path of the counter file on the sync branch.
const FileName = "counters.json"

// State is the authoritative next-free-number cursor, committed to the
// sync branch. Both counters are monotonically non-decreasing across the
// committed history; each successful allocation bumps exactly one counter
// by exactly one.
type State struct {
	SpecNumber           int       `json:"specNumber"`
	StandaloneTaskNumber int       `json:"standaloneTaskNumber"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// NextSpec returns the next free specification number and advances the
// cursor. Not idempotent: calling it again returns the following number.
func (s *State) NextSpec() int {
	n := s.SpecNumber
	s.SpecNumber++
	s.UpdatedAt = time.Now().UTC()
	return n
}

// NextStandalone returns the next free standalone task number and advances
// the cursor.
func (s *State) NextStandalone() int {
	n := s.StandaloneTaskNumber
	s.StandaloneTaskNumber++
	s.UpdatedAt = time.Now().UTC()
	return n
}

// Get returns the current value of the named counter.
func (s *State) Get(name string) (int, error) {
	switch name {
	case Spec:
		return s.SpecNumber, nil
	case Standalone:
		return s.StandaloneTaskNumber, nil
	default:
		return 0, fmt.Errorf("unknown counter %q", name)
	}
}

// Next returns the next free value of the named counter and advances it.
func (s *State) Next(name string) (int, error) {
	switch name {
	case Spec:
		return s.NextSpec(), nil
	case Standalone:
		return s.NextStandalone(), nil
	default:
		return 0, fmt.Errorf("unknown counter %q", name)
	}
}

// Validate checks structural invariants of a decoded state.
func (s *State) Validate() error {
	if s.SpecNumber < 0 {
		return fmt.Errorf("specNumber must be >= 0, got %d", s.SpecNumber)
	}
	if s.StandaloneTaskNumber < 0 {
		return fmt.Errorf("standaloneTaskNumber must be >= 0, got %d", s.StandaloneTaskNumber)
	}
	return nil
}

// Marshal encodes the state in the on-branch JSON format, with a trailing
// newline so the counter file diffs cleanly.
func (s *State) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode counter state: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes and validates a counter file.
func Unmarshal(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode counter state: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid counter state: %w", err)
	}
	return &s, nil
}
