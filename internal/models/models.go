// Package models defines the data objects shared across worktrunk packages.
package models

import "time"

// BranchName is a non-empty printable string drawn from the VCS's branch
// namespace. It may contain "/"; it is never empty and never contains NUL.
type BranchName string

// Worktree describes a single git worktree as reported by `git worktree
// list --porcelain`, canonicalized and enriched with its HEAD metadata.
type Worktree struct {
	Branch        BranchName // empty for a detached HEAD
	Path          string     // canonicalized
	HeadCommit    string
	IsBare        bool
	IsLocked      bool
	IsMain        bool
	IsDetached    bool
	CommitTime    time.Time
	CommitSubject string
	WorktreeState string // "", "bisect", "rebase", "merge", "cherry-pick", "revert"
}

// BranchRecord is a listing-only record for a branch with no working
// directory (used by --branches and --remotes).
type BranchRecord struct {
	Name       BranchName
	Commit     string
	Upstream   string // empty if none configured
	IsRemote   bool
	CommitTime time.Time
	CommitSubj string
}

// StatusFlags is a bitmask of working-tree status conditions.
type StatusFlags uint8

const (
	StatusUntracked StatusFlags = 1 << iota
	StatusModified
	StatusStaged
	StatusRenamed
	StatusDeleted
	StatusConflicted
)

// Has reports whether all bits in want are set.
func (f StatusFlags) Has(want StatusFlags) bool { return f&want == want }

// WorkingTreeStatus is the resolved value of the working_tree_status collector.
type WorkingTreeStatus struct {
	Flags     StatusFlags
	Untracked int
	Modified  int
	Staged    int
	Deleted   int
	Renamed   int
}

// Divergence classifies an ahead/behind relationship between two refs.
type Divergence string

const (
	DivergenceNone     Divergence = "none"
	DivergenceAhead    Divergence = "ahead"
	DivergenceBehind   Divergence = "behind"
	DivergenceDiverged Divergence = "diverged"
)

// AheadBehind is the resolved value of main_divergence/upstream_divergence.
type AheadBehind struct {
	Ahead  int
	Behind int
}

// Classify derives the Divergence classification for an AheadBehind pair,
// per spec: (a,0)->Ahead, (0,b)->Behind, (a,b) a,b>0->Diverged, (0,0)->None.
func (ab AheadBehind) Classify() Divergence {
	switch {
	case ab.Ahead > 0 && ab.Behind > 0:
		return DivergenceDiverged
	case ab.Ahead > 0:
		return DivergenceAhead
	case ab.Behind > 0:
		return DivergenceBehind
	default:
		return DivergenceNone
	}
}

// DiffStat is an added/deleted line-count pair.
type DiffStat struct {
	Added   int
	Deleted int
}

// PRInfo captures the relevant metadata for a pull/merge request.
type PRInfo struct {
	Number      int
	State       string // "OPEN", "MERGED", "CLOSED"
	Title       string
	URL         string
	Branch      string
	BaseBranch  string
	Author      string
	AuthorName  string
	AuthorIsBot bool
	IsDraft     bool
	CIStatus    string
}

// CICheck represents a single CI check/job status.
type CICheck struct {
	Name       string
	Status     string // "completed", "in_progress", "queued", "pending"
	Conclusion string // "success", "failure", "skipped", "cancelled", ...
}

// CommitFile represents a file changed in a commit.
type CommitFile struct {
	Filename   string
	ChangeType string // A/M/D/R/C
	OldPath    string
}

// CommitMeta is the batch-fetched timestamp/subject pair keyed by commit id.
type CommitMeta struct {
	Timestamp time.Time
	Subject   string
}

const (
	// CacheDirName is the subdirectory of the git common directory under
	// which on-disk fact-cache entries are stored.
	CacheDirName = "wt-cache"
	// StateConfigPrefix prefixes every git-config key worktrunk owns for
	// per-branch state (status markers, previous-branch pointer).
	StateConfigPrefix = "wt.state"
)
