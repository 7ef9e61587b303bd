package main

import (
	"context"
	"fmt"
	"os"

	"github.com/steveyegge/cub/internal/config"
	"github.com/steveyegge/cub/internal/counter"
	"github.com/steveyegge/cub/internal/ledger"
)

// recordAllocation journals a successful allocation in the local ledger and
// updates the checkout's sync bookkeeping. Both are best effort: the number
// is already committed on the counter branch, so failures here only degrade
// status output.
func (w *workspace) recordAllocation(ctx context.Context, id, counterName string, value int) {
	cubDir := config.Dir(w.root)
	tip := w.lastPublishedTip(ctx)

	if l, err := ledger.Open(cubDir); err == nil {
		defer l.Close()
		if err := l.Record(ctx, id, counterName, value, tip); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to journal allocation: %v\n", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Warning: failed to open allocation ledger: %v\n", err)
	}

	syncState, err := counter.LoadSyncState(cubDir, w.cfg.SyncBranch, counter.FileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load sync state: %v\n", err)
		return
	}
	if tip != "" {
		syncState.RecordPush(tip)
	}
	if err := syncState.Save(cubDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save sync state: %v\n", err)
	}
}

// lastPublishedTip resolves the local counter branch tip, which tracks the
// last accepted publish. Empty when the branch is missing.
func (w *workspace) lastPublishedTip(ctx context.Context) string {
	tip, err := w.git.LocalRef(ctx, w.root, w.cfg.SyncBranch)
	if err != nil {
		return ""
	}
	return tip
}
