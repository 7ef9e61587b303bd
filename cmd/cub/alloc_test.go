package main

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cub/internal/config"
	"github.com/steveyegge/cub/internal/counter"
	"github.com/steveyegge/cub/internal/git"
	"github.com/steveyegge/cub/internal/ledger"
)

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

// newTestRepo creates a git repository whose counter branch points at a
// single commit, and returns the repo path and that branch tip.
func newTestRepo(t *testing.T, branch string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "cub@example.com")
	runGit(t, dir, "config", "user.name", "cub test")
	runGit(t, dir, "commit", "-q", "--allow-empty", "-m", "seed")
	runGit(t, dir, "branch", branch)
	return dir, runGit(t, dir, "rev-parse", branch)
}

func TestRecordAllocation_JournalsTipOnce(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default("cub")
	root, tip := newTestRepo(t, cfg.SyncBranch)

	g, err := git.NewGit(ctx)
	require.NoError(t, err)

	ws := &workspace{root: root, cfg: cfg, git: g}
	ws.recordAllocation(ctx, "cub-054", counter.Spec, 54)

	// Ledger and sync state must agree on the tip recorded for the
	// allocation; it is resolved once and shared.
	l, err := ledger.Open(config.Dir(root))
	require.NoError(t, err)
	defer l.Close()

	entries, err := l.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cub-054", entries[0].ID)
	assert.Equal(t, tip, entries[0].Tip)

	syncState, err := counter.LoadSyncState(config.Dir(root), cfg.SyncBranch, counter.FileName)
	require.NoError(t, err)
	assert.Equal(t, tip, syncState.LastPushed)
	assert.True(t, syncState.Initialized)
	assert.False(t, syncState.HasUnpushedChanges())
}

func TestRecordAllocation_MissingBranchLeavesSyncUntouched(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default("cub")
	root, _ := newTestRepo(t, "unrelated")

	g, err := git.NewGit(ctx)
	require.NoError(t, err)

	ws := &workspace{root: root, cfg: cfg, git: g}
	ws.recordAllocation(ctx, "cub-054", counter.Spec, 54)

	// No counter branch: the allocation is still journaled, with no tip,
	// and the sync bookkeeping records no push.
	l, err := ledger.Open(config.Dir(root))
	require.NoError(t, err)
	defer l.Close()

	entries, err := l.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Tip)

	syncState, err := counter.LoadSyncState(config.Dir(root), cfg.SyncBranch, counter.FileName)
	require.NoError(t, err)
	assert.Empty(t, syncState.LastPushed)
}
