package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/worktrunk/worktrunk/internal/models"
)

// mergeCommand merges a worktree's branch into the current branch. Grounded
// on the teacher's deleteCommand's "operate on a worktree identified by
// branch or path, validate flag combinations, then call into the VCS
// layer" shape (cmd/lazyworktree/commands.go's handleDeleteAction).
func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Merge a worktree's branch into the current branch",
		ArgsUsage: "<branch|path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ff-only", Usage: "require a fast-forward merge, fail otherwise"},
			&cli.BoolFlag{Name: "delete", Usage: "delete the source branch and its worktree after a successful merge"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			return runMerge(ctx, e, firstArg(cmd), cmd.Bool("ff-only"), cmd.Bool("delete"))
		},
	}
}

func runMerge(ctx context.Context, e *env, target string, ffOnly, deleteAfter bool) error {
	if target == "" {
		return fmt.Errorf("merge requires a branch name or worktree path")
	}
	path, branch, err := e.resolveWorktreeTarget(ctx, target)
	if err != nil {
		return err
	}

	conflict, err := e.gw.MergeTreeWouldConflict(ctx, e.repoDir, "HEAD", branch)
	if err != nil {
		return fmt.Errorf("checking for merge conflicts: %w", err)
	}
	if conflict {
		return fmt.Errorf("%s conflicts with the current branch; resolve manually with `git merge %s`", branch, branch)
	}

	if err := e.gw.MergeInto(ctx, e.repoDir, branch, ffOnly); err != nil {
		return fmt.Errorf("merging %s: %w", branch, err)
	}
	e.rt.Status(fmt.Sprintf("merged %s", branch))

	if !deleteAfter {
		return nil
	}
	if dirty, err := e.gw.HasUncommittedChanges(ctx, path); err == nil && dirty {
		e.rt.Status(fmt.Sprintf("%s has uncommitted changes; skipping --delete", branch))
		return nil
	}
	if err := e.gw.RemoveWorktree(ctx, e.repoDir, path, false); err != nil {
		return fmt.Errorf("removing worktree after merge: %w", err)
	}
	if err := e.gw.DeleteBranch(ctx, e.repoDir, branch, false); err != nil {
		return fmt.Errorf("deleting branch after merge: %w", err)
	}
	_ = e.gw.WriteBranchConfig(ctx, e.repoDir, models.BranchName(branch), "marker", "")
	e.rt.Status(fmt.Sprintf("removed worktree and branch %s", branch))
	return nil
}
