package vcsgit

import (
	"context"
	"strconv"
	"strings"

	"github.com/worktrunk/worktrunk/internal/models"
)

// PorcelainStatus parses `git status --porcelain=v2 --branch` for the
// worktree rooted at dir into a WorkingTreeStatus. It is the sole source of
// the working_tree_status fact (spec §4.C).
func (g *Gateway) PorcelainStatus(ctx context.Context, dir string) (models.WorkingTreeStatus, error) {
	out, err := g.run(ctx, dir, nil, "status", "--porcelain=v2", "--branch", "--untracked-files=all")
	if err != nil {
		return models.WorkingTreeStatus{}, err
	}

	var st models.WorkingTreeStatus
	if out == "" {
		return st, nil
	}

	for _, line := range strings.Split(out, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch line[0] {
		case '1', '2':
			// Ordinary or renamed/copied changed entry: "1 XY ...", "2 XY ..."
			fields := strings.SplitN(line, " ", 3)
			if len(fields) < 2 {
				continue
			}
			xy := fields[1]
			classifyXY(xy, &st, line[0] == '2')
		case 'u':
			st.Flags |= models.StatusConflicted
		case '?':
			st.Untracked++
			st.Flags |= models.StatusUntracked
		}
	}
	return st, nil
}

func classifyXY(xy string, st *models.WorkingTreeStatus, renamed bool) {
	if len(xy) != 2 {
		return
	}
	index, worktree := xy[0], xy[1]
	if renamed {
		st.Renamed++
		st.Flags |= models.StatusRenamed
	}
	if index != '.' {
		st.Staged++
		st.Flags |= models.StatusStaged
	}
	switch worktree {
	case 'M':
		st.Modified++
		st.Flags |= models.StatusModified
	case 'D':
		st.Deleted++
		st.Flags |= models.StatusDeleted
	}
	if index == 'D' {
		st.Deleted++
		st.Flags |= models.StatusDeleted
	}
}

// BatchCommitMeta resolves timestamp+subject for many commits in a single
// `git show` invocation, keyed by commit id, using 0x1f field and 0x1e
// record separators so subjects containing spaces or newlines parse
// unambiguously.
func (g *Gateway) BatchCommitMeta(ctx context.Context, dir string, commits []string) (map[string]models.CommitMeta, error) {
	result := make(map[string]models.CommitMeta, len(commits))
	if len(commits) == 0 {
		return result, nil
	}

	args := []string{"show", "-s", "--format=%H%x1f%ct%x1f%s%x1e"}
	args = append(args, commits...)
	out, err := g.run(ctx, dir, nil, args...)
	if err != nil {
		return nil, err
	}

	for _, rec := range strings.Split(out, "\x1e") {
		rec = strings.Trim(rec, "\n")
		if rec == "" {
			continue
		}
		fields := strings.SplitN(rec, "\x1f", 3)
		if len(fields) != 3 {
			continue
		}
		ts, _ := strconv.ParseInt(fields[1], 10, 64)
		result[fields[0]] = models.CommitMeta{Timestamp: unixTime(ts), Subject: fields[2]}
	}
	return result, nil
}

// DiffStat computes the added/deleted line totals between base and head
// using `git diff --shortstat`, used for the main_diffstat fact.
func (g *Gateway) DiffStat(ctx context.Context, dir, base, head string) (models.DiffStat, error) {
	out, err := g.run(ctx, dir, nil, "diff", "--shortstat", base+"..."+head)
	if err != nil {
		return models.DiffStat{}, err
	}
	var ds models.DiffStat
	if out == "" {
		return ds, nil
	}
	for _, part := range strings.Split(out, ",") {
		part = strings.TrimSpace(part)
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(part, "insertion"):
			ds.Added = n
		case strings.Contains(part, "deletion"):
			ds.Deleted = n
		}
	}
	return ds, nil
}

// MergeTreeWouldConflict reports whether merging head into base would
// produce a conflict, via `git merge-tree --write-tree` (falling back to
// the pre-2.38 `git merge-tree <merge-base> <base> <head>` three-way form when
// the modern flag is unsupported).
func (g *Gateway) MergeTreeWouldConflict(ctx context.Context, dir, base, head string) (bool, error) {
	_, err := g.run(ctx, dir, []int{1}, "merge-tree", "--write-tree", base, head)
	if err == nil {
		return false, nil
	}
	gwErr, ok := err.(*GatewayError)
	if !ok {
		if strings.Contains(err.Error(), "unknown option") || strings.Contains(err.Error(), "usage:") {
			return g.legacyMergeTreeWouldConflict(ctx, dir, base, head)
		}
		return false, err
	}
	if gwErr.ExitCode == 1 {
		return true, nil
	}
	if strings.Contains(gwErr.Stderr, "unknown option") || strings.Contains(gwErr.Stderr, "usage:") {
		g.warn("merge-tree --write-tree unsupported, falling back to legacy three-way form")
		return g.legacyMergeTreeWouldConflict(ctx, dir, base, head)
	}
	return false, err
}

func (g *Gateway) legacyMergeTreeWouldConflict(ctx context.Context, dir, base, head string) (bool, error) {
	mergeBase, err := g.run(ctx, dir, nil, "merge-base", base, head)
	if err != nil {
		return false, err
	}
	out, err := g.run(ctx, dir, []int{0, 1}, "merge-tree", mergeBase, base, head)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "<<<<<<<"), nil
}

// ReadBranchConfig reads a single worktrunk-owned state value for branch,
// stored under the "wt.state.<branch>.<field>" git-config namespace.
func (g *Gateway) ReadBranchConfig(ctx context.Context, dir string, branch models.BranchName, field string) (string, error) {
	key := configKey(branch, field)
	out, err := g.run(ctx, dir, []int{1}, "config", "--get", key)
	if err != nil {
		if gwErr, ok := err.(*GatewayError); ok && gwErr.ExitCode == 1 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// WriteBranchConfig sets a worktrunk-owned state value for branch. An empty
// value removes the key instead of writing an empty string.
func (g *Gateway) WriteBranchConfig(ctx context.Context, dir string, branch models.BranchName, field, value string) error {
	key := configKey(branch, field)
	if value == "" {
		_, err := g.run(ctx, dir, []int{5}, "config", "--unset", key)
		return err
	}
	_, err := g.run(ctx, dir, nil, "config", key, value)
	return err
}

func configKey(branch models.BranchName, field string) string {
	return models.StateConfigPrefix + "." + string(branch) + "." + field
}
