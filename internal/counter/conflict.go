package counter

import "time"

// ResolutionStrategy selects how a divergent local/remote edit to the same
// task is resolved.
type ResolutionStrategy string

const (
	// ResolveNewestWins picks whichever side was updated most recently.
	// This is the default strategy.
	ResolveNewestWins ResolutionStrategy = "newest-wins"

	// ResolveLocal always keeps the local edit.
	ResolveLocal ResolutionStrategy = "local"

	// ResolveRemote always keeps the remote edit.
	ResolveRemote ResolutionStrategy = "remote"
)

// Winner identifies which side of a conflict was kept.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
)

// SyncConflict records divergent local and remote edits to the same task.
// Conflicts are detected and reported, never silently merged.
type SyncConflict struct {
	TaskID          string             `json:"taskId"`
	LocalUpdatedAt  time.Time          `json:"localUpdatedAt"`
	RemoteUpdatedAt time.Time          `json:"remoteUpdatedAt"`
	Strategy        ResolutionStrategy `json:"strategy"`
	Winner          Winner             `json:"winner,omitempty"`
}

// Resolve applies the conflict's strategy and records the winner. An unset
// strategy defaults to newest-wins; a tie goes to the remote side, which is
// the authoritative copy.
func (c *SyncConflict) Resolve() Winner {
	strategy := c.Strategy
	if strategy == "" {
		strategy = ResolveNewestWins
		c.Strategy = strategy
	}
	switch strategy {
	case ResolveLocal:
		c.Winner = WinnerLocal
	case ResolveRemote:
		c.Winner = WinnerRemote
	default:
		if c.LocalUpdatedAt.After(c.RemoteUpdatedAt) {
			c.Winner = WinnerLocal
		} else {
			c.Winner = WinnerRemote
		}
	}
	return c.Winner
}
