package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Initialize(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	initialized, err := m.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, initialized)

	require.NoError(t, m.Initialize(ctx))
	require.NoError(t, m.Initialize(ctx)) // idempotent

	initialized, err = m.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, initialized)
	assert.Len(t, m.History(), 1)
}

func TestMemory_ReadUninitialized(t *testing.T) {
	_, _, err := NewMemory().Read(context.Background())
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestMemory_PublishCAS(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	state, tip, err := m.Read(ctx)
	require.NoError(t, err)

	state.NextSpec()
	newTip, err := m.Publish(ctx, state, tip)
	require.NoError(t, err)
	assert.NotEqual(t, tip, newTip)

	// Publishing against the stale parent is rejected.
	state.NextSpec()
	_, err = m.Publish(ctx, state, tip)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemory_ReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Initialize(ctx))

	state, _, err := m.Read(ctx)
	require.NoError(t, err)
	state.SpecNumber = 99

	fresh, _, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.SpecNumber)
}
