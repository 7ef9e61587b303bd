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

var specWithPlan bool

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Work with specification identifiers",
}

var specNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Allocate the next specification number",
	Long: `Allocate the next globally unique specification number from the counter
branch and print the resulting identifier (e.g. "cub-054").

The allocation is optimistic: cub reads the shared counters, commits the
increment, and pushes. If another checkout allocated concurrently the push
is rejected and cub retries with the refreshed counter value, so two
checkouts can never receive the same number.

With --plan, the first plan identifier ("cub-054A") is printed as well.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		ws, err := openWorkspace(ctx)
		if err != nil {
			fatal("%v", err)
		}

		gen := ident.NewGenerator(&store.Source{Store: ws.st, Policy: ws.retryPolicy()})
		id, err := gen.NewSpecID(ctx, ws.cfg.Project)
		if err != nil {
			fatal("%v", err)
		}

		ws.recordAllocation(ctx, id.String(), counter.Spec, id.Number)

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s\n", green(id.String()))

		if specWithPlan {
			letter, err := ident.NextPlanLetter(nil)
			if err != nil {
				fatal("%v", err)
			}
			plan, err := ident.NewPlanID(id, letter)
			if err != nil {
				fatal("%v", err)
			}
			fmt.Printf("%s\n", green(plan.String()))
		}
	},
}

func init() {
	specNewCmd.Flags().BoolVar(&specWithPlan, "plan", false, "Also print the first plan identifier for the new spec")
	specCmd.AddCommand(specNewCmd)
	rootCmd.AddCommand(specCmd)
}
