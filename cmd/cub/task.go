package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cub/internal/counter"
	"github.com/steveyegge/cub/internal/ident"
	"github.com/steveyegge/cub/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Work with task identifiers",
}

var taskNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Allocate the next standalone task number",
	Long: `Allocate the next globally unique standalone task number from the counter
branch and print the resulting identifier (e.g. "cub-s007").

Standalone tasks live outside the spec/plan/epic hierarchy and draw from
their own counter. Allocation uses the same optimistic publish-and-retry
protocol as specification numbers.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		ws, err := openWorkspace(ctx)
		if err != nil {
			fatal("%v", err)
		}

		gen := ident.NewGenerator(&store.Source{Store: ws.st, Policy: ws.retryPolicy()})
		id, err := gen.NewStandaloneID(ctx, ws.cfg.Project)
		if err != nil {
			fatal("%v", err)
		}

		ws.recordAllocation(ctx, id.String(), counter.Standalone, id.Number)

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s\n", green(id.String()))
	},
}

func init() {
	taskCmd.AddCommand(taskNewCmd)
	rootCmd.AddCommand(taskCmd)
}
