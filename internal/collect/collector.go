// Package collect implements the closed set of Fact Collectors (spec §3,
// §4.C): independent units, each producing exactly one fact kind for one
// branch, run concurrently by the Progressive Orchestrator (internal/
// orchestrate) and fed through the Fact Cache (internal/cache).
package collect

import (
	"context"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/models"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// Input is everything a collector needs to resolve its fact for one row.
// Not every field is meaningful to every collector; a collector reads only
// what its kind requires.
type Input struct {
	Worktree      models.Worktree
	DefaultBranch models.BranchName
	Upstream      string // empty if none configured
	RemoteURL     string
	URLTemplate   string // "" if no url column is configured
}

// Collector produces one fact kind. Collect returning a *CollectorError
// means the fact errored without aborting the row (spec §7); a plain error
// is treated the same way by the orchestrator, which never promotes a
// collector failure to fatal.
type Collector interface {
	Kind() cache.FactKind
	Collect(ctx context.Context, in Input) (cache.FactValue, error)
}

// CollectorError wraps a failed fact collection with the kind that failed,
// so the orchestrator can render a neutral "?" cell instead of the value
// and surface the message at verbose log level (spec §7).
type CollectorError struct {
	Kind cache.FactKind
	Err  error
}

func (e *CollectorError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *CollectorError) Unwrap() error { return e.Err }

// Registry returns the closed set of collectors that operate against gw.
// Callers (the orchestrator, and `wt status`) select a subset by Kind()
// rather than constructing collectors individually.
func Registry(gw *vcsgit.Gateway, codeforge *Codeforge, expander TemplateExpander) []Collector {
	return []Collector{
		&WorkingTreeStatusCollector{Gateway: gw},
		&MainDivergenceCollector{Gateway: gw},
		&UpstreamDivergenceCollector{Gateway: gw},
		&MainDiffstatCollector{Gateway: gw},
		&ConflictsWithMainCollector{Gateway: gw},
		&PRStatusCollector{Codeforge: codeforge},
		&CIStatusCollector{Codeforge: codeforge},
		&URLCollector{Expander: expander},
		&URLLiveCollector{},
		&StatusMarkerCollector{Gateway: gw},
		&IntegrationTargetCollector{Gateway: gw},
		&PreviousBranchCollector{Gateway: gw},
	}
}
