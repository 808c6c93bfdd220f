package collect

import (
	"context"
	"errors"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/models"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// MainDivergenceCollector resolves how far a branch has drifted from the
// repository's default branch, via `git rev-list --left-right --count`.
type MainDivergenceCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *MainDivergenceCollector) Kind() cache.FactKind { return cache.FactMainDivergence }

func (c *MainDivergenceCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	if in.Worktree.Branch == "" || in.DefaultBranch == "" {
		return nil, &CollectorError{Kind: c.Kind(), Err: errors.New("no branch to compare")}
	}
	ahead, behind, err := c.Gateway.RevListLeftRight(ctx, in.Worktree.Path, string(in.DefaultBranch), string(in.Worktree.Branch))
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	return models.AheadBehind{Ahead: ahead, Behind: behind}, nil
}

// UpstreamDivergenceCollector is identical to MainDivergenceCollector except
// it compares against the branch's configured upstream rather than the
// default branch, and is absent (not an error) when no upstream exists.
type UpstreamDivergenceCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *UpstreamDivergenceCollector) Kind() cache.FactKind { return cache.FactUpstreamDivergence }

func (c *UpstreamDivergenceCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	if in.Upstream == "" {
		return nil, nil
	}
	ahead, behind, err := c.Gateway.RevListLeftRight(ctx, in.Worktree.Path, in.Upstream, string(in.Worktree.Branch))
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	return models.AheadBehind{Ahead: ahead, Behind: behind}, nil
}
