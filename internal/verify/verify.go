package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/cub/internal/config"
	"github.com/steveyegge/cub/internal/store"
)

// BeforePush cross-checks the checkout's identifier usage against the
// authoritative counter state before ordinary work is published.
//
// The check fails open whenever the comparison itself cannot be performed:
// counter branch never initialized, remote unreachable, no remote
// counterpart, or unparseable remote state. It fails closed the moment a
// genuine numeric overlap is found: a local file references a number the
// authoritative counters still consider unallocated.
//
// Returns (true, "") to allow the push, or (false, message) with every
// specific conflict and concrete remediation steps.
func BeforePush(ctx context.Context, s store.VersionedCounterStore, root string, cfg *config.Config) (bool, string) {
	initialized, err := s.Initialized(ctx)
	if err != nil || !initialized {
		return true, "" // nothing authoritative to compare against
	}

	state, _, err := s.Read(ctx)
	if err != nil {
		return true, "" // unreachable or corrupt authoritative data
	}

	usage, err := Scan(root, cfg)
	if err != nil {
		return true, "" // local scan failed; comparison cannot be performed
	}

	specConflicts := refsAtOrAbove(usage.SpecRefs, state.SpecNumber)
	standaloneConflicts := refsAtOrAbove(usage.StandaloneRefs, state.StandaloneTaskNumber)
	if len(specConflicts) == 0 && len(standaloneConflicts) == 0 {
		return true, ""
	}

	var b strings.Builder
	b.WriteString("cub: identifier collision risk detected, push blocked\n\n")

	if len(specConflicts) > 0 {
		fmt.Fprintf(&b, "Specification numbers used locally but not allocated on %s:\n", cfg.SyncBranch)
		for _, n := range specConflicts {
			for _, file := range usage.SpecRefs[n] {
				fmt.Fprintf(&b, "  %s-%03d  (%s)\n", cfg.Project, n, file)
			}
		}
		fmt.Fprintf(&b, "  local max: %d, next available on %s: %d\n\n",
			usage.MaxSpec, cfg.SyncBranch, state.SpecNumber)
	}

	if len(standaloneConflicts) > 0 {
		fmt.Fprintf(&b, "Standalone task numbers used locally but not allocated on %s:\n", cfg.SyncBranch)
		for _, n := range standaloneConflicts {
			for _, file := range usage.StandaloneRefs[n] {
				fmt.Fprintf(&b, "  %s-s%03d  (%s)\n", cfg.Project, n, file)
			}
		}
		fmt.Fprintf(&b, "  local max: %d, next available on %s: %d\n\n",
			usage.MaxStandalone, cfg.SyncBranch, state.StandaloneTaskNumber)
	}

	b.WriteString("These numbers were (or will be) promised to another checkout.\n")
	b.WriteString("To fix:\n")
	fmt.Fprintf(&b, "  1. git fetch %s %s\n", cfg.Remote, cfg.SyncBranch)
	b.WriteString("  2. cub init            (resync local counters)\n")
	b.WriteString("  3. renumber the conflicting identifiers listed above\n")
	b.WriteString("  4. retry the push\n")
	b.WriteString("To push anyway (at your own risk): git push --no-verify\n")

	return false, b.String()
}
