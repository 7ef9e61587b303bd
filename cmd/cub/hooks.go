package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cub/internal/hooks"
)

var hooksForce bool

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the pre-push verification hook",
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pre-push hook shim",
	Long: `Install the pre-push shim into the repository's hooks directory. An
existing non-cub hook is backed up to pre-push.backup; with --force it is
overwritten instead. An existing cub shim is upgraded in place.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		hooksDir, err := resolveHooksDir(ctx)
		if err != nil {
			fatal("%v", err)
		}
		if err := hooks.Install(hooksDir, hooksForce); err != nil {
			fatal("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Installed %s hook (shim %s)\n", green("✓"), hooks.HookName, hooks.ShimVersion)
	},
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the pre-push hook shim",
	Long: `Remove the cub pre-push shim and restore any backed-up hook. A hook not
installed by cub is left untouched.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		hooksDir, err := resolveHooksDir(ctx)
		if err != nil {
			fatal("%v", err)
		}
		if err := hooks.Uninstall(hooksDir); err != nil {
			fatal("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Removed %s hook\n", green("✓"), hooks.HookName)
	},
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed state of the pre-push hook",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		hooksDir, err := resolveHooksDir(ctx)
		if err != nil {
			fatal("%v", err)
		}
		printHookStatus(hooks.Check(hooksDir))
	},
}

func printHookStatus(status hooks.Status) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	switch {
	case !status.Installed:
		fmt.Printf("%s %s hook not installed\n", gray("○"), hooks.HookName)
	case !status.IsCubHook:
		fmt.Printf("%s %s hook present but not managed by cub\n", yellow("⚠"), hooks.HookName)
	case status.Outdated:
		fmt.Printf("%s %s hook installed, shim %s is outdated (current: %s)\n",
			yellow("⚠"), hooks.HookName, status.Version, hooks.ShimVersion)
		fmt.Printf("  Run 'cub hooks install' to upgrade.\n")
	default:
		fmt.Printf("%s %s hook installed (shim %s)\n", green("●"), hooks.HookName, status.Version)
	}
}

func resolveHooksDir(ctx context.Context) (string, error) {
	ws, err := openWorkspace(ctx)
	if err != nil {
		return "", err
	}
	return ws.git.HooksDir(ctx, ws.root)
}

func init() {
	hooksInstallCmd.Flags().BoolVar(&hooksForce, "force", false, "Overwrite an existing non-cub hook instead of backing it up")
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	hooksCmd.AddCommand(hooksStatusCmd)
	rootCmd.AddCommand(hooksCmd)
}
