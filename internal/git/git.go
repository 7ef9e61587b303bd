// Package git wraps the git CLI with the plumbing operations the counter
// store needs: fetching a single ref, reading a blob at a ref, building a
// commit without touching the working tree, and publishing a ref with the
// remote's atomic compare-and-swap semantics.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrBranchNotFound is returned when the requested branch does not
	// exist locally or on the remote.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrFileNotFound is returned when a path does not exist at the
	// requested ref.
	ErrFileNotFound = errors.New("file not found at ref")

	// ErrPushRejected is returned when the remote refuses a push because
	// the ref advanced since it was last read. This is the CAS failure the
	// allocation protocol retries on.
	ErrPushRejected = errors.New("push rejected: remote ref advanced")
)

// Git executes git plumbing commands via the git CLI.
type Git struct {
	// gitPath is the path to the git executable
	gitPath string
}

// NewGit creates a new Git instance.
// It verifies that git is available on the system.
func NewGit(ctx context.Context) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}

	// Verify git works
	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}

	return &Git{gitPath: gitPath}, nil
}

// RepoRoot returns the absolute path of the repository containing dir.
func (g *Git) RepoRoot(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", dir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository at %s: %w", dir, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HooksDir returns the absolute path of the repository's hooks directory,
// honoring core.hooksPath and shared worktree layouts.
func (g *Git) HooksDir(ctx context.Context, repoPath string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "rev-parse", "--git-path", "hooks")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve hooks directory in %s: %w", repoPath, err)
	}
	dir := strings.TrimSpace(string(output))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(repoPath, dir)
	}
	return dir, nil
}

// HasRemote checks whether the named remote is configured.
func (g *Git) HasRemote(ctx context.Context, repoPath, remote string) (bool, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "remote")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git remote failed in %s: %w", repoPath, err)
	}
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == remote {
			return true, nil
		}
	}
	return false, nil
}

// FetchBranch fetches the tip of refs/heads/<branch> from the remote and
// returns its commit hash. Depth-1: the counter file only needs the tip.
// Returns ErrBranchNotFound when the remote has no such branch; any other
// failure is a transport error.
func (g *Git) FetchBranch(ctx context.Context, repoPath, remote, branch string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath,
		"fetch", "--depth=1", remote, "refs/heads/"+branch)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if isMissingRemoteRef(stderr.String()) {
			return "", fmt.Errorf("%w: %s on %s", ErrBranchNotFound, branch, remote)
		}
		return "", fmt.Errorf("git fetch %s %s failed: %w\n%s", remote, branch, err, stderr.String())
	}

	tipCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "rev-parse", "FETCH_HEAD")
	output, err := tipCmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve FETCH_HEAD: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// LocalRef resolves refs/heads/<branch> in the local repository.
func (g *Git) LocalRef(ctx context.Context, repoPath, branch string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath,
		"rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBranchNotFound, branch)
	}
	return strings.TrimSpace(string(output)), nil
}

// UpdateLocalRef points refs/heads/<branch> at sha. Used after a successful
// publish so the local branch tracks what the remote accepted.
func (g *Git) UpdateLocalRef(ctx context.Context, repoPath, branch, sha string) error {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath,
		"update-ref", "refs/heads/"+branch, sha)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git update-ref %s failed: %w", branch, err)
	}
	return nil
}

// ShowFile reads the contents of path at ref without touching the working
// tree. Returns ErrFileNotFound if the path does not exist at that ref.
func (g *Git) ShowFile(ctx context.Context, repoPath, ref, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "show", ref+":"+path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		msg := stderr.String()
		if strings.Contains(msg, "does not exist") || strings.Contains(msg, "exists on disk, but not in") {
			return nil, fmt.Errorf("%w: %s at %s", ErrFileNotFound, path, ref)
		}
		return nil, fmt.Errorf("git show %s:%s failed: %w\n%s", ref, path, err, msg)
	}
	return output, nil
}

// HashObject writes data into the object database and returns its blob hash.
func (g *Git) HashObject(ctx context.Context, repoPath string, data []byte) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "hash-object", "-w", "--stdin")
	cmd.Stdin = bytes.NewReader(data)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git hash-object failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// TreeEntry is one blob entry of a tree built with MkTree.
type TreeEntry struct {
	Mode string // e.g. "100644"
	Hash string
	Name string
}

// MkTree builds a tree object from entries and returns its hash.
func (g *Git) MkTree(ctx context.Context, repoPath string, entries []TreeEntry) (string, error) {
	var in bytes.Buffer
	for _, e := range entries {
		mode := e.Mode
		if mode == "" {
			mode = "100644"
		}
		fmt.Fprintf(&in, "%s blob %s\t%s\n", mode, e.Hash, e.Name)
	}
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "mktree")
	cmd.Stdin = &in
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git mktree failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CommitTree creates a commit object for tree with the given parent (empty
// for a root commit) and returns its hash.
func (g *Git) CommitTree(ctx context.Context, repoPath, tree, parent, message string) (string, error) {
	args := []string{"-C", repoPath, "commit-tree", tree, "-m", message}
	if parent != "" {
		args = append(args, "-p", parent)
	}
	cmd := exec.CommandContext(ctx, g.gitPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git commit-tree failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// PushRef publishes sha as refs/heads/<branch> on the remote. The push is
// deliberately not forced: the remote accepts it only as a fast-forward of
// its current tip, which is the compare-and-swap the allocation protocol
// relies on. A rejection is returned as ErrPushRejected; anything else is
// a transport error.
func (g *Git) PushRef(ctx context.Context, repoPath, remote, sha, branch string) error {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath,
		"push", remote, sha+":refs/heads/"+branch)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if isPushRejection(msg) {
			return fmt.Errorf("%w: %s on %s", ErrPushRejected, branch, remote)
		}
		return fmt.Errorf("git push %s %s failed: %w\n%s", remote, branch, err, msg)
	}
	return nil
}

// isPushRejection distinguishes a remote-side ref rejection (another writer
// won the race) from a transport failure. The generic "failed to push some
// refs" trailer is deliberately not a marker: it also accompanies policy
// rejections (pre-receive hooks), which must not be retried as conflicts.
func isPushRejection(stderr string) bool {
	msg := strings.ToLower(stderr)
	for _, marker := range []string{
		"[rejected]",
		"non-fast-forward",
		"fetch first",
		"stale info",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isMissingRemoteRef reports whether a fetch failed because the remote has
// no such branch, as opposed to the remote being unreachable.
func isMissingRemoteRef(stderr string) bool {
	msg := strings.ToLower(stderr)
	return strings.Contains(msg, "couldn't find remote ref") ||
		strings.Contains(msg, "no such ref was fetched")
}
