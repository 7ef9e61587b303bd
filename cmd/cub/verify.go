package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/cub/internal/verify"
)

var verifyPushCmd = &cobra.Command{
	Use:   "verify-push",
	Short: "Pre-push check for identifier collisions (used by the git hook)",
	Long: `Cross-check the checkout's identifier usage against the authoritative
counters before a push. Installed as the repository's pre-push hook by
'cub init' or 'cub hooks install'; rarely run by hand.

The check fails open: if the counters are uninitialized, the remote is
unreachable, or the comparison cannot be performed for any other reason,
the push proceeds. It fails closed only on a genuine overlap, when a
local file references a number the shared counters have not yet handed
out. Bypass with 'git push --no-verify'.`,
	Args: cobra.ArbitraryArgs, // git passes remote name and URL
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		ws, err := openWorkspace(ctx)
		if err != nil {
			// No repository or config means nothing to verify.
			os.Exit(0)
		}

		ok, message := verify.BeforePush(ctx, ws.st, ws.root, ws.cfg)
		if ok {
			os.Exit(0)
		}
		fmt.Fprint(os.Stderr, message)
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(verifyPushCmd)
}
