package collect

import (
	"context"
	"errors"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// MainDiffstatCollector resolves the main_diffstat fact: added/deleted line
// counts between the branch and the default branch's merge-base.
type MainDiffstatCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *MainDiffstatCollector) Kind() cache.FactKind { return cache.FactMainDiffstat }

func (c *MainDiffstatCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	if in.Worktree.Branch == "" || in.DefaultBranch == "" {
		return nil, &CollectorError{Kind: c.Kind(), Err: errors.New("no branch to compare")}
	}
	ds, err := c.Gateway.DiffStat(ctx, in.Worktree.Path, string(in.DefaultBranch), string(in.Worktree.Branch))
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	return ds, nil
}

// ConflictsWithMainCollector resolves the conflicts_with_main fact: whether
// merging the branch into the default branch would produce a conflict,
// via a non-materializing three-way merge simulation.
type ConflictsWithMainCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *ConflictsWithMainCollector) Kind() cache.FactKind { return cache.FactConflictsWithMain }

func (c *ConflictsWithMainCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	if in.Worktree.Branch == "" || in.DefaultBranch == "" {
		return nil, &CollectorError{Kind: c.Kind(), Err: errors.New("no branch to compare")}
	}
	conflict, err := c.Gateway.MergeTreeWouldConflict(ctx, in.Worktree.Path, string(in.DefaultBranch), string(in.Worktree.Branch))
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	return conflict, nil
}
