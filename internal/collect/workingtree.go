package collect

import (
	"context"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// WorkingTreeStatusCollector resolves the working_tree_status fact via a
// single `git status --porcelain=v2 --branch` call. Files hidden behind
// assume-unchanged or skip-worktree bits are not enumerated by that
// command, so they never contribute to the counts (a known limitation, not
// a bug: see spec §9).
type WorkingTreeStatusCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *WorkingTreeStatusCollector) Kind() cache.FactKind { return cache.FactWorkingTreeStatus }

func (c *WorkingTreeStatusCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	st, err := c.Gateway.PorcelainStatus(ctx, in.Worktree.Path)
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	return st, nil
}
