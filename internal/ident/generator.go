package ident

import (
	"context"
	"fmt"

	"github.com/steveyegge/cub/internal/counter"
)

// NumberSource allocates the next integer from a named counter. The
// production implementation is backed by the versioned counter store; tests
// substitute an in-memory source.
type NumberSource interface {
	Next(ctx context.Context, name string) (int, error)
}

// Generator composes a NumberSource with the identifier value model. It is
// the only part of the package that performs I/O, all of it delegated to
// the source.
type Generator struct {
	src NumberSource
}

// NewGenerator creates a generator backed by src.
func NewGenerator(src NumberSource) *Generator {
	return &Generator{src: src}
}

// NewSpecID allocates the next specification number for project and wraps
// it in a SpecID. Store errors (uninitialized, retries exhausted, remote
// unreachable) pass through unwrapped for errors.Is inspection.
func (g *Generator) NewSpecID(ctx context.Context, project string) (SpecID, error) {
	if project == "" {
		return SpecID{}, fmt.Errorf("%w: project must not be empty", ErrInvalidArgument)
	}
	n, err := g.src.Next(ctx, counter.Spec)
	if err != nil {
		return SpecID{}, err
	}
	return SpecID{Project: project, Number: n}, nil
}

// NewStandaloneID allocates the next standalone task number for project and
// wraps it in a StandaloneID.
func (g *Generator) NewStandaloneID(ctx context.Context, project string) (StandaloneID, error) {
	if project == "" {
		return StandaloneID{}, fmt.Errorf("%w: project must not be empty", ErrInvalidArgument)
	}
	n, err := g.src.Next(ctx, counter.Standalone)
	if err != nil {
		return StandaloneID{}, err
	}
	return StandaloneID{Project: project, Number: n}, nil
}
