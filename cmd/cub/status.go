package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cub/internal/config"
	"github.com/steveyegge/cub/internal/counter"
	"github.com/steveyegge/cub/internal/hooks"
	"github.com/steveyegge/cub/internal/ledger"
	"github.com/steveyegge/cub/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show counter, sync, and hook status for this checkout",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		ws, err := openWorkspace(ctx)
		if err != nil {
			fatal("%v", err)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== cub status ==="))
		fmt.Printf("  Project:        %s\n", ws.cfg.Project)
		fmt.Printf("  Counter branch: %s\n", ws.cfg.SyncBranch)
		fmt.Printf("  Remote:         %s\n", ws.cfg.Remote)
		fmt.Println()

		// Shared counters. Unreachable or uninitialized is status, not an error.
		fmt.Printf("%s\n", yellow("Counters:"))
		state, _, err := ws.st.Read(ctx)
		switch {
		case errors.Is(err, store.ErrUninitialized):
			fmt.Printf("  %s\n", gray("Not initialized. Run 'cub init' to create the counter branch."))
		case errors.Is(err, store.ErrRemoteUnreachable):
			fmt.Printf("  %s\n", red("Remote unreachable; counters cannot be read."))
		case err != nil:
			fmt.Printf("  %s %v\n", red("Error:"), err)
		default:
			fmt.Printf("  Next spec number:       %d  (%s-%03d)\n", state.SpecNumber, ws.cfg.Project, state.SpecNumber)
			fmt.Printf("  Next standalone number: %d  (%s-s%03d)\n", state.StandaloneTaskNumber, ws.cfg.Project, state.StandaloneTaskNumber)
			if !state.UpdatedAt.IsZero() {
				fmt.Printf("  Last allocation:        %s\n", state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
			}
		}
		fmt.Println()

		// Per-checkout sync bookkeeping.
		cubDir := config.Dir(ws.root)
		fmt.Printf("%s\n", yellow("Sync state:"))
		syncState, err := counter.LoadSyncState(cubDir, ws.cfg.SyncBranch, counter.FileName)
		if err != nil {
			fmt.Printf("  %s %v\n", red("Error:"), err)
		} else if !syncState.Initialized {
			fmt.Printf("  %s\n", gray("This checkout has not synced yet."))
		} else {
			fmt.Printf("  Last synced: %s\n", formatTime(syncState.LastSyncAt))
			fmt.Printf("  Last pushed: %s\n", formatTime(syncState.LastPushAt))
			if syncState.HasUnpushedChanges() {
				fmt.Printf("  %s\n", yellow("Local counter commits have not reached the remote."))
			} else {
				fmt.Printf("  %s\n", green("In sync with the remote."))
			}
		}
		fmt.Println()

		// Recent allocations from the local ledger.
		fmt.Printf("%s\n", yellow("Recent allocations (this checkout):"))
		if l, err := ledger.Open(cubDir); err == nil {
			defer l.Close()
			entries, err := l.Recent(ctx, 5)
			if err != nil {
				fmt.Printf("  %s %v\n", red("Error:"), err)
			} else if len(entries) == 0 {
				fmt.Printf("  %s\n", gray("None recorded."))
			} else {
				for _, e := range entries {
					fmt.Printf("  %s  %s\n", e.ID, gray(e.CreatedAt.Format("2006-01-02 15:04:05")))
				}
			}
		} else {
			fmt.Printf("  %s\n", gray("No ledger."))
		}
		fmt.Println()

		// Hook.
		fmt.Printf("%s\n", yellow("Pre-push hook:"))
		hooksDir, err := ws.git.HooksDir(ctx, ws.root)
		if err != nil {
			fmt.Printf("  %s %v\n", red("Error:"), err)
		} else {
			fmt.Print("  ")
			printHookStatus(hooks.Check(hooksDir))
		}
		fmt.Println()
	},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (%v ago)",
		t.Format("2006-01-02 15:04:05"), time.Since(t).Round(time.Second))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
