package vcsgit

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/worktrunk/worktrunk/internal/models"
)

// ListWorktrees returns every worktree of the current repository, in the
// order `git worktree list --porcelain` reports them (first entry is always
// the main worktree). Paths are canonicalized with filepath.EvalSymlinks
// where possible; a worktree whose path no longer exists on disk (pruned
// externally) is compared by resolving its parent directory instead, per
// spec §3.
func (g *Gateway) ListWorktrees(ctx context.Context, dir string) ([]models.Worktree, error) {
	raw, err := g.run(ctx, dir, nil, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var worktrees []models.Worktree
	var cur *models.Worktree
	flush := func() {
		if cur != nil {
			worktrees = append(worktrees, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			path := strings.TrimPrefix(line, "worktree ")
			cur = &models.Worktree{Path: canonicalizePath(path)}
		case cur == nil:
			continue
		case strings.HasPrefix(line, "HEAD "):
			cur.HeadCommit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			b := strings.TrimPrefix(line, "branch ")
			b = strings.TrimPrefix(b, "refs/heads/")
			cur.Branch = models.BranchName(b)
		case line == "bare":
			cur.IsBare = true
		case line == "detached":
			cur.IsDetached = true
		case strings.HasPrefix(line, "locked"):
			cur.IsLocked = true
		}
	}
	flush()

	for i := range worktrees {
		worktrees[i].IsMain = i == 0
		worktrees[i].WorktreeState = g.detectWorktreeState(worktrees[i].Path)
	}

	return worktrees, nil
}

// detectWorktreeState checks for the presence of git's own in-progress
// sequencer markers (BISECT_LOG, rebase-merge, MERGE_HEAD, ...). It runs
// one `git rev-parse --git-dir` to locate the worktree's git directory,
// then checks the marker files there with plain filesystem stats.
func (g *Gateway) detectWorktreeState(worktreePath string) string {
	gitDir, err := g.run(context.Background(), worktreePath, nil, "rev-parse", "--git-dir")
	if err != nil || gitDir == "" {
		return ""
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(worktreePath, gitDir)
	}
	for _, candidate := range []struct {
		path  string
		state string
	}{
		{filepath.Join(gitDir, "rebase-merge"), "rebase"},
		{filepath.Join(gitDir, "rebase-apply"), "rebase"},
		{filepath.Join(gitDir, "BISECT_LOG"), "bisect"},
		{filepath.Join(gitDir, "MERGE_HEAD"), "merge"},
		{filepath.Join(gitDir, "CHERRY_PICK_HEAD"), "cherry-pick"},
		{filepath.Join(gitDir, "REVERT_HEAD"), "revert"},
	} {
		if pathExists(candidate.path) {
			return candidate.state
		}
	}
	return ""
}

// DefaultBranch reads the repository's designated integration branch from
// `origin/HEAD`, falling back to "main" when no symbolic ref is configured.
func (g *Gateway) DefaultBranch(ctx context.Context, dir string) (models.BranchName, error) {
	out, err := g.run(ctx, dir, []int{128}, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err != nil {
		if gwErr, ok := err.(*GatewayError); ok && gwErr.ExitCode != 0 {
			return "main", nil
		}
		return "", err
	}
	if out == "" {
		return "main", nil
	}
	parts := strings.Split(out, "/")
	return models.BranchName(parts[len(parts)-1]), nil
}

// IsBare reports whether the repository at dir is a bare repository.
func (g *Gateway) IsBare(ctx context.Context, dir string) (bool, error) {
	out, err := g.run(ctx, dir, nil, "rev-parse", "--is-bare-repository")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}

// BranchesForEach lists branch or remote-branch records matching refPattern
// (e.g. "refs/heads" or "refs/remotes") via a single `for-each-ref` call.
func (g *Gateway) BranchesForEach(ctx context.Context, dir, refPattern string) ([]models.BranchRecord, error) {
	format := "%(refname:short)|%(objectname)|%(upstream:short)|%(committerdate:unix)|%(subject)"
	out, err := g.run(ctx, dir, nil, "for-each-ref", "--format="+format, refPattern)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	isRemote := strings.HasPrefix(refPattern, "refs/remotes")
	var records []models.BranchRecord
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "|", 5)
		if len(parts) < 5 {
			continue
		}
		ts, _ := strconv.ParseInt(parts[3], 10, 64)
		records = append(records, models.BranchRecord{
			Name:       models.BranchName(parts[0]),
			Commit:     parts[1],
			Upstream:   parts[2],
			IsRemote:   isRemote,
			CommitTime: unixTime(ts),
			CommitSubj: parts[4],
		})
	}
	return records, nil
}

// RevListLeftRight reports the left-right ahead/behind counts between base
// and head via a single `rev-list --left-right --count` call: (ahead,
// behind) where ahead counts commits reachable from head but not base.
func (g *Gateway) RevListLeftRight(ctx context.Context, dir, base, head string) (ahead, behind int, err error) {
	spec := base + "..." + head
	out, err := g.run(ctx, dir, nil, "rev-list", "--left-right", "--count", spec)
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, &ParseError{Op: "rev-list --left-right --count", Line: out}
	}
	behind, err1 := strconv.Atoi(fields[0])
	ahead, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, &ParseError{Op: "rev-list --left-right --count", Line: out}
	}
	return ahead, behind, nil
}

// CommitIsAncestorOf reports whether a is an ancestor of (or equal to) b.
func (g *Gateway) CommitIsAncestorOf(ctx context.Context, dir, a, b string) (bool, error) {
	_, err := g.run(ctx, dir, []int{1}, "merge-base", "--is-ancestor", a, b)
	if err != nil {
		if gwErr, ok := err.(*GatewayError); ok && gwErr.ExitCode == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func canonicalizePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	// Path does not exist (or a component does not). Resolve the parent
	// directory instead, per spec §3, and rejoin the final component.
	parent := filepath.Dir(path)
	base := filepath.Base(path)
	if resolved, err := filepath.EvalSymlinks(parent); err == nil {
		return filepath.Join(resolved, base)
	}
	return filepath.Clean(path)
}
