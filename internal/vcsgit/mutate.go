package vcsgit

import (
	"context"
	"strings"
)

// AddWorktree runs `git worktree add`, optionally creating a new branch
// (createBranch) rooted at startPoint. Grounded on the teacher's
// internal/cli/operations.go, which shells the same command directly
// (`git worktree add -b <branch> <path> <base>`) rather than through any
// higher-level worktree-creation library.
func (g *Gateway) AddWorktree(ctx context.Context, dir, path, createBranch, startPoint string) error {
	args := []string{"worktree", "add"}
	if createBranch != "" {
		args = append(args, "-b", createBranch)
	}
	args = append(args, path)
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := g.run(ctx, dir, nil, args...)
	return err
}

// RemoveWorktree runs `git worktree remove`, following the teacher's
// `--force` usage in operations.go so a worktree with an untracked scratch
// file doesn't block removal; force is still the caller's decision to make
// (spec §4.C's "remove a dirty worktree only with --force").
func (g *Gateway) RemoveWorktree(ctx context.Context, dir, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := g.run(ctx, dir, nil, args...)
	return err
}

// DeleteBranch runs `git branch -d` (or `-D` when force), mirroring the
// teacher's `--no-branch` flag handling in cmd/lazyworktree/commands.go
// (delete worktree, then delete its branch unless told not to).
func (g *Gateway) DeleteBranch(ctx context.Context, dir, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.run(ctx, dir, nil, "branch", flag, branch)
	return err
}

// MergeInto fast-forwards or merges head into the branch currently checked
// out at dir. ffOnly requests `--ff-only` (spec §4.C's default merge mode,
// which refuses to create a merge commit); otherwise a real merge commit is
// allowed.
func (g *Gateway) MergeInto(ctx context.Context, dir, head string, ffOnly bool) error {
	args := []string{"merge"}
	if ffOnly {
		args = append(args, "--ff-only")
	} else {
		args = append(args, "--no-edit")
	}
	args = append(args, head)
	_, err := g.run(ctx, dir, nil, args...)
	return err
}

// CheckoutBranch switches dir's current worktree to branch, the plain
// non-worktree-creating counterpart to AddWorktree, used when `switch`
// targets a worktree that already exists on disk.
func (g *Gateway) CheckoutBranch(ctx context.Context, dir, branch string) error {
	_, err := g.run(ctx, dir, nil, "checkout", branch)
	return err
}

// CurrentBranch reports the branch checked out at dir, or "" when detached.
func (g *Gateway) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, []int{1}, "symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		if gwErr, ok := err.(*GatewayError); ok && gwErr.ExitCode == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HasUncommittedChanges is a cheap boolean probe used by destructive
// commands (remove, switch) to decide whether to require --force, cheaper
// than a full PorcelainStatus parse when only the yes/no answer is needed.
func (g *Gateway) HasUncommittedChanges(ctx context.Context, dir string) (bool, error) {
	out, err := g.run(ctx, dir, nil, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}
