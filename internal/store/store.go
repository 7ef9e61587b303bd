// Package store provides the versioned counter store: a small key-value
// record (the counter state) kept in an append-only, linearizable history
// that any checkout with access to the shared remote can read and advance.
//
// The production implementation keeps the history on a dedicated git branch
// and uses the remote's atomic ref update as its only mutual exclusion; the
// in-memory implementation exists for deterministic tests of the retry loop.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/cub/internal/counter"
)

var (
	// ErrUninitialized is returned when no counter state has ever been
	// committed. Actionable: run the initialize operation.
	ErrUninitialized = errors.New("counter store not initialized")

	// ErrAllocationExhausted is returned when the optimistic retry budget
	// runs out before a publish lands.
	ErrAllocationExhausted = errors.New("allocation retry budget exhausted")

	// ErrRemoteUnreachable is returned when the shared remote cannot be
	// reached and offline allocation is not permitted.
	ErrRemoteUnreachable = errors.New("remote unreachable")

	// ErrConflict is returned by Publish when the store's tip advanced
	// since it was read. Allocate retries on it; everything else is final.
	ErrConflict = errors.New("publish conflict: tip advanced")
)

// Tip identifies one version of the counter state (a commit hash for the
// git-backed store).
type Tip string

// VersionedCounterStore is the abstract store behind allocation. Publish
// has compare-and-swap semantics: it succeeds only if the store's current
// tip still equals parent.
type VersionedCounterStore interface {
	// Initialize creates the store with all-zero counters if it does not
	// already exist. Idempotent.
	Initialize(ctx context.Context) error

	// Initialized reports whether counter state has ever been committed.
	Initialized(ctx context.Context) (bool, error)

	// Read returns the counter state at the current tip, and the tip
	// itself for use as the Publish parent.
	Read(ctx context.Context) (*counter.State, Tip, error)

	// Publish commits state as a successor of parent. Returns ErrConflict
	// if the tip advanced since parent was read.
	Publish(ctx context.Context, state *counter.State, parent Tip) (Tip, error)
}

// RetryPolicy bounds the optimistic retry loop in Allocate.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the standard allocation retry budget.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     3 * time.Second,
	}
}

// newBackOff builds the policy's backoff schedule. BackOff implementations
// are stateful; always build a fresh instance per allocation.
func (p RetryPolicy) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock
	return backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)) // #nosec G115 -- MaxAttempts is a small positive config value
}

// Allocate performs one read-bump-publish cycle against the named counter,
// retrying with backoff while another allocator wins the publish race.
// On success the returned value is the number the counter held when read;
// the committed state holds value+1. After the retry budget is exhausted
// it returns ErrAllocationExhausted; any non-conflict failure is returned
// as-is without further retries.
func Allocate(ctx context.Context, s VersionedCounterStore, name string, policy RetryPolicy) (int, error) {
	if policy.MaxAttempts < 1 {
		return 0, fmt.Errorf("retry policy must allow at least one attempt, got %d", policy.MaxAttempts)
	}

	var allocated int
	op := func() error {
		state, tip, err := s.Read(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		n, err := state.Next(name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := s.Publish(ctx, state, tip); err != nil {
			if errors.Is(err, ErrConflict) {
				return err // another allocator won; refresh and retry
			}
			return backoff.Permanent(err)
		}
		allocated = n
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy.newBackOff(), ctx)); err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, fmt.Errorf("%w: %d attempts on counter %q: %v",
				ErrAllocationExhausted, policy.MaxAttempts, name, err)
		}
		return 0, err
	}
	return allocated, nil
}

// Source adapts a store and retry policy to the generator's NumberSource
// interface.
type Source struct {
	Store  VersionedCounterStore
	Policy RetryPolicy
}

// Next allocates the next integer from the named counter.
func (s *Source) Next(ctx context.Context, name string) (int, error) {
	return Allocate(ctx, s.Store, name, s.Policy)
}
