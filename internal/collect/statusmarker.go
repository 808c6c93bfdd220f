package collect

import (
	"context"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

const (
	configFieldStatusMarker      = "marker"
	configFieldIntegrationTarget = "integration-target"
	configFieldPreviousBranch    = "previous-branch"
)

// StatusMarkerCollector resolves the status_marker fact: a short
// user-set annotation (e.g. an emoji) stored in branch-scoped git config
// and writable by the `status` subcommand. It has no TTL — config is read
// live on every collection (spec §3).
type StatusMarkerCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *StatusMarkerCollector) Kind() cache.FactKind { return cache.FactStatusMarker }

func (c *StatusMarkerCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	return readBranchField(ctx, c.Gateway, in, c.Kind(), configFieldStatusMarker)
}

// IntegrationTargetCollector resolves the integration_target fact: the
// branch a worktree should be merged into, overriding the repository's
// default branch when set.
type IntegrationTargetCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *IntegrationTargetCollector) Kind() cache.FactKind { return cache.FactIntegrationTarget }

func (c *IntegrationTargetCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	return readBranchField(ctx, c.Gateway, in, c.Kind(), configFieldIntegrationTarget)
}

// PreviousBranchCollector resolves the previous_branch fact: the branch
// `wt switch` last left before switching to this one, used to support
// "switch back" navigation.
type PreviousBranchCollector struct {
	Gateway *vcsgit.Gateway
}

func (c *PreviousBranchCollector) Kind() cache.FactKind { return cache.FactPreviousBranch }

func (c *PreviousBranchCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	return readBranchField(ctx, c.Gateway, in, c.Kind(), configFieldPreviousBranch)
}

func readBranchField(ctx context.Context, gw *vcsgit.Gateway, in Input, kind cache.FactKind, field string) (cache.FactValue, error) {
	if in.Worktree.Branch == "" {
		return nil, nil
	}
	value, err := gw.ReadBranchConfig(ctx, in.Worktree.Path, in.Worktree.Branch, field)
	if err != nil {
		return nil, &CollectorError{Kind: kind, Err: err}
	}
	if value == "" {
		return nil, nil
	}
	return value, nil
}
