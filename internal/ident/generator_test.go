package ident

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/cub/internal/counter"
)

// fakeSource hands out scripted numbers per counter name.
type fakeSource struct {
	next map[string]int
	err  error
}

func (f *fakeSource) Next(_ context.Context, name string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := f.next[name]
	f.next[name] = n + 1
	return n, nil
}

func TestGenerator_NewSpecID(t *testing.T) {
	gen := NewGenerator(&fakeSource{next: map[string]int{counter.Spec: 54}})

	id, err := gen.NewSpecID(context.Background(), "cub")
	require.NoError(t, err)
	assert.Equal(t, "cub-054", id.String())

	// Consecutive allocations advance.
	id, err = gen.NewSpecID(context.Background(), "cub")
	require.NoError(t, err)
	assert.Equal(t, "cub-055", id.String())
}

func TestGenerator_NewStandaloneID(t *testing.T) {
	gen := NewGenerator(&fakeSource{next: map[string]int{counter.Standalone: 7}})

	id, err := gen.NewStandaloneID(context.Background(), "cub")
	require.NoError(t, err)
	assert.Equal(t, "cub-s007", id.String())
}

func TestGenerator_EmptyProject(t *testing.T) {
	gen := NewGenerator(&fakeSource{next: map[string]int{}})

	_, err := gen.NewSpecID(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = gen.NewStandaloneID(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGenerator_SourceErrorsPassThrough(t *testing.T) {
	sentinel := errors.New("store down")
	gen := NewGenerator(&fakeSource{err: sentinel})

	_, err := gen.NewSpecID(context.Background(), "cub")
	assert.ErrorIs(t, err, sentinel)
}
