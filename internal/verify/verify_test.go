package verify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cub/internal/config"
	"github.com/steveyegge/cub/internal/counter"
	"github.com/steveyegge/cub/internal/store"
)

// storeAt builds an initialized in-memory store whose counters sit at the
// given next-available numbers.
func storeAt(t *testing.T, specNext, standaloneNext int) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.Initialize(ctx))

	state, tip, err := m.Read(ctx)
	require.NoError(t, err)
	state.SpecNumber = specNext
	state.StandaloneTaskNumber = standaloneNext
	_, err = m.Publish(ctx, state, tip)
	require.NoError(t, err)
	return m
}

func TestBeforePush_AllowsCleanCheckout(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default("cub")

	// Local usage stays below the next-available numbers.
	writeFile(t, root, ".cub", "notes.md", "done: cub-053, cub-s006\n")

	ok, msg := BeforePush(context.Background(), storeAt(t, 54, 7), root, cfg)
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestBeforePush_FailsOpenWhenUninitialized(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default("cub")

	writeFile(t, root, ".cub", "notes.md", "cub-999 everywhere\n")

	// Never-initialized store: no authoritative data, push proceeds.
	ok, msg := BeforePush(context.Background(), store.NewMemory(), root, cfg)
	assert.True(t, ok)
	assert.Empty(t, msg)
}

// brokenStore simulates an unreachable remote.
type brokenStore struct{ store.Memory }

func (b *brokenStore) Initialized(context.Context) (bool, error) {
	return true, nil
}

func (b *brokenStore) Read(context.Context) (*counter.State, store.Tip, error) {
	return nil, "", store.ErrRemoteUnreachable
}

func TestBeforePush_FailsOpenWhenUnreachable(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default("cub")

	writeFile(t, root, ".cub", "notes.md", "cub-999\n")

	ok, _ := BeforePush(context.Background(), &brokenStore{}, root, cfg)
	assert.True(t, ok)
}

func TestBeforePush_FailsClosedOnSpecOverlap(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default("cub")

	// cub-060 is referenced locally, but the counters say 54 is the next
	// number to hand out: 60 was never allocated here.
	writeFile(t, root, ".cub", "notes.md", "starting cub-060\n")

	ok, msg := BeforePush(context.Background(), storeAt(t, 54, 7), root, cfg)
	require.False(t, ok)
	assert.Contains(t, msg, "cub-060")
	assert.Contains(t, msg, "notes.md")
	assert.Contains(t, msg, "local max: 60")
	assert.Contains(t, msg, fmt.Sprintf("next available on %s: 54", cfg.SyncBranch))
	assert.Contains(t, msg, "git push --no-verify")
}

func TestBeforePush_FailsClosedOnStandaloneOverlap(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default("cub")

	writeFile(t, root, "tasks", "list.md", "todo cub-s010\n")
	cfg.TaskDirs = []string{"tasks"}

	ok, msg := BeforePush(context.Background(), storeAt(t, 54, 7), root, cfg)
	require.False(t, ok)
	assert.Contains(t, msg, "cub-s010")
	assert.Contains(t, msg, "local max: 10")
}

func TestBeforePush_ExactNextNumberConflicts(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default("cub")

	// The next-available number itself is a conflict: it has not been
	// handed out yet, so a local reference to it jumped the queue.
	writeFile(t, root, ".cub", "notes.md", "cub-054\n")

	ok, _ := BeforePush(context.Background(), storeAt(t, 54, 0), root, cfg)
	assert.False(t, ok)

	// One below is fine: 53 was the last number actually allocated.
	ok, _ = BeforePush(context.Background(), storeAt(t, 55, 0), root, cfg)
	assert.True(t, ok)
}
