package store

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/cub/internal/counter"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestAllocate_Sequential(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	for want := 0; want < 3; want++ {
		n, err := Allocate(ctx, m, counter.Spec, DefaultRetryPolicy())
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// The standalone counter advances independently.
	n, err := Allocate(ctx, m, counter.Standalone, DefaultRetryPolicy())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	state, _, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, state.SpecNumber)
	assert.Equal(t, 1, state.StandaloneTaskNumber)
}

// Concurrent allocators must each receive a distinct number and together
// cover a contiguous range. Every lost publish race means some other
// allocator committed, so a budget above the worker count guarantees
// termination.
func TestAllocate_ConcurrentUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	const workers = 8
	var mu sync.Mutex
	var got []int

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			n, err := Allocate(gctx, m, counter.Spec, fastPolicy(workers+2))
			if err != nil {
				return err
			}
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Ints(got)
	for i := 0; i < workers; i++ {
		assert.Equal(t, i, got[i], "allocations must be distinct and contiguous")
	}

	state, _, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, state.SpecNumber)
}

func TestAllocate_RetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	// A competitor steals the tip before the first two publish attempts.
	var losses int
	var inHook bool
	m.PublishHook = func() {
		if inHook || losses >= 2 {
			return
		}
		inHook = true
		defer func() { inHook = false }()
		losses++
		state, tip, err := m.Read(ctx)
		require.NoError(t, err)
		state.NextSpec()
		_, err = m.Publish(ctx, state, tip)
		require.NoError(t, err)
	}

	n, err := Allocate(ctx, m, counter.Spec, fastPolicy(5))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the refreshed counter value, not the first read, is allocated")
}

func TestAllocate_ExhaustsRetryBudget(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	// Every publish attempt loses the race.
	var inHook bool
	m.PublishHook = func() {
		if inHook {
			return
		}
		inHook = true
		defer func() { inHook = false }()
		state, tip, err := m.Read(ctx)
		require.NoError(t, err)
		state.NextSpec()
		_, err = m.Publish(ctx, state, tip)
		require.NoError(t, err)
	}

	_, err := Allocate(ctx, m, counter.Spec, fastPolicy(3))
	assert.ErrorIs(t, err, ErrAllocationExhausted)
}

// readFailer returns a fixed error from Read; Publish must never be reached.
type readFailer struct {
	Memory
	err   error
	reads int
}

func (f *readFailer) Read(context.Context) (*counter.State, Tip, error) {
	f.reads++
	return nil, "", f.err
}

func TestAllocate_NonConflictErrorsAreFinal(t *testing.T) {
	f := &readFailer{err: ErrRemoteUnreachable}

	_, err := Allocate(context.Background(), f, counter.Spec, fastPolicy(5))
	assert.ErrorIs(t, err, ErrRemoteUnreachable)
	assert.Equal(t, 1, f.reads, "non-conflict failures must not be retried")
}

func TestAllocate_UnknownCounter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	_, err := Allocate(ctx, m, "bogus", fastPolicy(5))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAllocationExhausted)
}

func TestAllocate_RejectsEmptyBudget(t *testing.T) {
	_, err := Allocate(context.Background(), NewMemory(), counter.Spec, RetryPolicy{})
	assert.Error(t, err)
}

func TestSource_Next(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	src := &Source{Store: m, Policy: DefaultRetryPolicy()}
	n, err := src.Next(ctx, counter.Standalone)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
