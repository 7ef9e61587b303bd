package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/steveyegge/cub/internal/counter"
	"github.com/steveyegge/cub/internal/git"
)

// GitStore keeps the counter state on a dedicated branch of the checkout's
// own repository, fetched from and published to the shared remote. The
// branch is never checked out: the store reads blobs at the fetched tip and
// publishes with plumbing commands, so the user's working tree is untouched.
type GitStore struct {
	git          *git.Git
	repoPath     string
	remote       string
	branch       string
	allowOffline bool
	fetchTimeout time.Duration
}

// GitStoreConfig configures a GitStore.
type GitStoreConfig struct {
	RepoPath string
	Remote   string // defaults to "origin"
	Branch   string // defaults to "cub-sync"

	// AllowOffline permits allocation against the local branch tip when
	// the remote is unreachable. Off by default: an offline allocation is
	// only safe for a checkout that is known to be the sole allocator.
	AllowOffline bool

	// FetchTimeout bounds each remote fetch/push. Defaults to 30s.
	FetchTimeout time.Duration
}

// NewGitStore creates a git-backed counter store.
func NewGitStore(g *git.Git, cfg GitStoreConfig) *GitStore {
	remote := cfg.Remote
	if remote == "" {
		remote = "origin"
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "cub-sync"
	}
	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GitStore{
		git:          g,
		repoPath:     cfg.RepoPath,
		remote:       remote,
		branch:       branch,
		allowOffline: cfg.AllowOffline,
		fetchTimeout: timeout,
	}
}

// Branch returns the sync branch name.
func (s *GitStore) Branch() string { return s.branch }

// Remote returns the remote name.
func (s *GitStore) Remote() string { return s.remote }

// Initialize creates the sync branch with an all-zero counter state if it
// does not exist anywhere. Idempotent; losing the creation race to another
// checkout counts as success.
func (s *GitStore) Initialize(ctx context.Context) error {
	initialized, err := s.Initialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		return nil
	}

	state := &counter.State{UpdatedAt: time.Now().UTC()}
	sha, err := s.commitState(ctx, state, "")
	if err != nil {
		return fmt.Errorf("failed to create initial counter commit: %w", err)
	}

	hasRemote, err := s.git.HasRemote(ctx, s.repoPath, s.remote)
	if err != nil {
		return err
	}
	if hasRemote {
		pushCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		if err := s.git.PushRef(pushCtx, s.repoPath, s.remote, sha, s.branch); err != nil {
			if errors.Is(err, git.ErrPushRejected) {
				// Another checkout initialized first; theirs wins.
				return nil
			}
			return fmt.Errorf("failed to publish initial counter state: %w", err)
		}
	}

	if err := s.git.UpdateLocalRef(ctx, s.repoPath, s.branch, sha); err != nil {
		return err
	}
	return nil
}

// Initialized reports whether the sync branch exists locally or remotely.
func (s *GitStore) Initialized(ctx context.Context) (bool, error) {
	if _, err := s.git.LocalRef(ctx, s.repoPath, s.branch); err == nil {
		return true, nil
	}

	hasRemote, err := s.git.HasRemote(ctx, s.repoPath, s.remote)
	if err != nil {
		return false, err
	}
	if !hasRemote {
		return false, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	_, err = s.git.FetchBranch(fetchCtx, s.repoPath, s.remote, s.branch)
	if errors.Is(err, git.ErrBranchNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	return true, nil
}

// Read fetches the current tip of the sync branch and decodes the counter
// file recorded there.
func (s *GitStore) Read(ctx context.Context) (*counter.State, Tip, error) {
	tip, err := s.currentTip(ctx)
	if err != nil {
		return nil, "", err
	}

	data, err := s.git.ShowFile(ctx, s.repoPath, string(tip), counter.FileName)
	if errors.Is(err, git.ErrFileNotFound) {
		return nil, "", fmt.Errorf("%w: no %s on branch %s", ErrUninitialized, counter.FileName, s.branch)
	}
	if err != nil {
		return nil, "", err
	}

	state, err := counter.Unmarshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("counter file on %s is corrupt: %w", s.branch, err)
	}
	return state, tip, nil
}

// Publish commits state with parent as its sole ancestor and pushes it to
// the remote. A non-fast-forward rejection means another allocator
// published first and surfaces as ErrConflict; nothing is left behind but
// an unreferenced object.
func (s *GitStore) Publish(ctx context.Context, state *counter.State, parent Tip) (Tip, error) {
	sha, err := s.commitState(ctx, state, string(parent))
	if err != nil {
		return "", err
	}

	hasRemote, err := s.git.HasRemote(ctx, s.repoPath, s.remote)
	if err != nil {
		return "", err
	}
	if hasRemote {
		pushCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		if err := s.git.PushRef(pushCtx, s.repoPath, s.remote, sha, s.branch); err != nil {
			if errors.Is(err, git.ErrPushRejected) {
				return "", fmt.Errorf("%w: %v", ErrConflict, err)
			}
			return "", fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
		}
	} else if !s.allowOffline {
		return "", fmt.Errorf("%w: no remote %q configured", ErrRemoteUnreachable, s.remote)
	}

	// Best effort: a stale local ref only means the next offline read is
	// stale, and offline reads are opt-in.
	_ = s.git.UpdateLocalRef(ctx, s.repoPath, s.branch, sha)

	return Tip(sha), nil
}

// currentTip resolves the authoritative tip: the remote's, or the local
// ref when offline mode permits it.
func (s *GitStore) currentTip(ctx context.Context) (Tip, error) {
	hasRemote, err := s.git.HasRemote(ctx, s.repoPath, s.remote)
	if err != nil {
		return "", err
	}

	if hasRemote {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		tip, err := s.git.FetchBranch(fetchCtx, s.repoPath, s.remote, s.branch)
		if err == nil {
			return Tip(tip), nil
		}
		if errors.Is(err, git.ErrBranchNotFound) {
			return "", fmt.Errorf("%w: branch %s has no remote counterpart", ErrUninitialized, s.branch)
		}
		if !s.allowOffline {
			return "", fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
		}
		// Fall through to the local tip.
	}

	tip, err := s.git.LocalRef(ctx, s.repoPath, s.branch)
	if errors.Is(err, git.ErrBranchNotFound) {
		return "", fmt.Errorf("%w: branch %s does not exist", ErrUninitialized, s.branch)
	}
	if err != nil {
		return "", err
	}
	if !hasRemote && !s.allowOffline {
		return "", fmt.Errorf("%w: no remote %q configured", ErrRemoteUnreachable, s.remote)
	}
	return Tip(tip), nil
}

// commitState writes state as a single-file tree and wraps it in a commit.
func (s *GitStore) commitState(ctx context.Context, state *counter.State, parent string) (string, error) {
	data, err := state.Marshal()
	if err != nil {
		return "", err
	}

	blob, err := s.git.HashObject(ctx, s.repoPath, data)
	if err != nil {
		return "", err
	}
	tree, err := s.git.MkTree(ctx, s.repoPath, []git.TreeEntry{{Hash: blob, Name: counter.FileName}})
	if err != nil {
		return "", err
	}

	msg := fmt.Sprintf("cub sync: counters spec=%d standalone=%d",
		state.SpecNumber, state.StandaloneTaskNumber)
	return s.git.CommitTree(ctx, s.repoPath, tree, parent, msg)
}
