// Command cub allocates globally unique, human-readable, hierarchical
// identifiers across concurrent checkouts of the same repository, using a
// dedicated git branch as the shared counter store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/cub/internal/config"
	"github.com/steveyegge/cub/internal/git"
	"github.com/steveyegge/cub/internal/store"
)

// Version is the cub release version, overridden at build time via
// -ldflags "-X main.Version=...".
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "cub",
	Short: "Distributed identifier allocation for specs, plans, epics, and tasks",
	Long: `cub allocates globally unique identifiers (cub-054, cub-054A-0.1, cub-s007)
across any number of concurrent checkouts without a central database.

Numbers come from counters stored on a dedicated branch of this repository
(default: cub-sync). Allocation is optimistic: read the counter, commit the
increment, push. The remote's atomic ref update is the only lock: if
another checkout pushed first, cub refreshes and retries.

A pre-push hook provides a second line of defense, blocking pushes that
would reuse numbers the shared counters have already promised elsewhere.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// workspace bundles everything a command needs to talk to the counter
// store from the current checkout.
type workspace struct {
	root string
	cfg  *config.Config
	git  *git.Git
	st   *store.GitStore
}

// openWorkspace locates the enclosing git repository, loads its cub
// configuration, and wires up the git-backed counter store.
func openWorkspace(ctx context.Context) (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	g, err := git.NewGit(ctx)
	if err != nil {
		return nil, err
	}

	root, err := g.RepoRoot(ctx, cwd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	st := store.NewGitStore(g, store.GitStoreConfig{
		RepoPath:     root,
		Remote:       cfg.Remote,
		Branch:       cfg.SyncBranch,
		AllowOffline: cfg.AllowOffline,
		FetchTimeout: cfg.FetchTimeout,
	})

	return &workspace{root: root, cfg: cfg, git: g, st: st}, nil
}

// retryPolicy builds the allocation retry policy from config.
func (w *workspace) retryPolicy() store.RetryPolicy {
	policy := store.DefaultRetryPolicy()
	policy.MaxAttempts = w.cfg.MaxAttempts
	return policy
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
