package counter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SyncStateFile is the per-checkout bookkeeping file, relative to the .cub
// directory. It is local state and must never be committed.
const SyncStateFile = "sync-state.json"

// SyncState records a checkout's synchronization progress against the sync
// branch. One file per checkout; checkouts never share it.
type SyncState struct {
	CheckoutID  string    `json:"checkoutId"`
	Branch      string    `json:"branch"`
	FilePath    string    `json:"filePath"`
	LastCommit  string    `json:"lastCommit"`
	LastPushed  string    `json:"lastPushed"`
	LastSyncAt  time.Time `json:"lastSyncAt"`
	LastPushAt  time.Time `json:"lastPushAt"`
	Initialized bool      `json:"initialized"`
}

// NewSyncState creates the bookkeeping record for a fresh checkout. The
// checkout ID distinguishes state files when a working copy is cloned or
// copied wholesale.
func NewSyncState(branch, filePath string) *SyncState {
	return &SyncState{
		CheckoutID: uuid.New().String(),
		Branch:     branch,
		FilePath:   filePath,
	}
}

// HasUnpushedChanges reports whether the checkout has committed counter
// changes that have not reached the remote.
func (s *SyncState) HasUnpushedChanges() bool {
	return s.LastCommit != s.LastPushed
}

// RecordSync updates the bookkeeping after a successful fetch of the sync
// branch tip.
func (s *SyncState) RecordSync(tip string) {
	s.LastCommit = tip
	s.LastSyncAt = time.Now().UTC()
	s.Initialized = true
}

// RecordPush updates the bookkeeping after a successful publish.
func (s *SyncState) RecordPush(tip string) {
	s.LastCommit = tip
	s.LastPushed = tip
	s.LastPushAt = time.Now().UTC()
	s.Initialized = true
}

// LoadSyncState reads the checkout's sync state from dir, returning a fresh
// record if none exists yet.
func LoadSyncState(dir, branch, filePath string) (*SyncState, error) {
	path := filepath.Join(dir, SyncStateFile)
	data, err := os.ReadFile(path) // #nosec G304 -- path is under the checkout's .cub directory
	if os.IsNotExist(err) {
		return NewSyncState(branch, filePath), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}
	var s SyncState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode sync state: %w", err)
	}
	return &s, nil
}

// Save writes the sync state to dir atomically (write-then-rename).
func (s *SyncState) Save(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync state: %w", err)
	}
	tmp := filepath.Join(dir, SyncStateFile+".tmp")
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, SyncStateFile)); err != nil {
		return fmt.Errorf("failed to replace sync state: %w", err)
	}
	return nil
}
