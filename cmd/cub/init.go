package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cub/internal/config"
	"github.com/steveyegge/cub/internal/counter"
	"github.com/steveyegge/cub/internal/hooks"
)

var (
	initProject string
	initNoHooks bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cub in the current repository",
	Long: `Initialize cub by creating the .cub/ directory, the counter branch, and
the pre-push verification hook.

This creates:
  - .cub/config.yaml (project name and sync settings)
  - the counter branch (default: cub-sync) with all counters at zero,
    pushed to the remote if one is configured
  - .git/hooks/pre-push (a thin shim delegating to 'cub verify-push')

Initialization is idempotent. If another checkout already created the
counter branch, the existing branch wins and local state resyncs to it.

Example:
  cd ~/myproject
  cub init                  # project name from the directory name
  cub init --project myapp  # explicit project prefix (myapp-001, ...)`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		ws, err := openWorkspace(ctx)
		if err != nil {
			fatal("%v", err)
		}

		if initProject != "" {
			ws.cfg.Project = initProject
		}
		if err := ws.cfg.Save(ws.root); err != nil {
			fatal("%v", err)
		}

		if err := ws.st.Initialize(ctx); err != nil {
			fatal("failed to initialize counter branch: %v", err)
		}

		// Seed the per-checkout sync bookkeeping.
		cubDir := config.Dir(ws.root)
		syncState, err := counter.LoadSyncState(cubDir, ws.cfg.SyncBranch, counter.FileName)
		if err != nil {
			fatal("%v", err)
		}
		if tip, err := ws.git.LocalRef(ctx, ws.root, ws.cfg.SyncBranch); err == nil {
			syncState.RecordSync(tip)
		}
		if err := syncState.Save(cubDir); err != nil {
			fatal("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized cub\n\n", green("✓"))
		fmt.Printf("  Project:        %s\n", cyan(ws.cfg.Project))
		fmt.Printf("  Counter branch: %s\n", cyan(ws.cfg.SyncBranch))
		fmt.Printf("  Remote:         %s\n", cyan(ws.cfg.Remote))
		fmt.Printf("  Config:         %s\n", cyan(filepath.Join(cubDir, config.FileName)))

		if initNoHooks {
			fmt.Printf("\n  %s\n\n", gray("Skipped hook installation (--no-hooks)"))
			return
		}

		hooksDir, err := ws.git.HooksDir(ctx, ws.root)
		if err != nil {
			fatal("%v", err)
		}
		if err := hooks.Install(hooksDir, false); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to install pre-push hook: %v\n", err)
			fmt.Fprintf(os.Stderr, "Run 'cub hooks install' to retry.\n")
			return
		}
		fmt.Printf("  Hook:           %s\n\n", cyan(filepath.Join(hooksDir, hooks.HookName)))
	},
}

func init() {
	initCmd.Flags().StringVar(&initProject, "project", "", "Project identifier prefix (default: repository directory name)")
	initCmd.Flags().BoolVar(&initNoHooks, "no-hooks", false, "Skip pre-push hook installation")
	rootCmd.AddCommand(initCmd)
}
