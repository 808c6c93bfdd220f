package collect

import (
	"context"

	"github.com/worktrunk/worktrunk/internal/cache"
)

// PRStatusCollector resolves the pr_status fact: the pull/merge request (if
// any) attached to the branch, reached through the codeforge sub-seam
// rather than the VCS Gateway — PR status is a hosting-platform concern,
// not a git one.
type PRStatusCollector struct {
	Codeforge *Codeforge
}

func (c *PRStatusCollector) Kind() cache.FactKind { return cache.FactPRStatus }

func (c *PRStatusCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	host := DetectHost(in.RemoteURL)
	if host == HostUnknown {
		return nil, nil
	}
	pr, err := c.Codeforge.PRForWorktree(ctx, host, in.Worktree.Path)
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	if pr == nil {
		return nil, nil
	}
	return *pr, nil
}

// CIStatusCollector resolves the ci_status fact for the branch's open PR.
// Absent (not an error) when there is no PR to check CI against.
type CIStatusCollector struct {
	Codeforge *Codeforge
}

func (c *CIStatusCollector) Kind() cache.FactKind { return cache.FactCIStatus }

func (c *CIStatusCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	host := DetectHost(in.RemoteURL)
	if host == HostUnknown {
		return nil, nil
	}
	pr, err := c.Codeforge.PRForWorktree(ctx, host, in.Worktree.Path)
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	if pr == nil {
		return nil, nil
	}
	status, err := c.Codeforge.CIStatus(ctx, host, pr.Number, string(in.Worktree.Branch))
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	if status == "" {
		return nil, nil
	}
	return status, nil
}
