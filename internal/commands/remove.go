package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/worktrunk/worktrunk/internal/models"
)

// removeCommand tears down a worktree and, optionally, its branch. Grounded
// on the teacher's handleDeleteAction (cmd/lazyworktree/commands.go),
// generalized to the VCS Gateway's mutation methods instead of the
// teacher's internal/git.Service.
func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Remove a worktree",
		ArgsUsage: "<branch|path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "remove even with uncommitted changes, and force-delete the branch"},
			&cli.BoolFlag{Name: "keep-branch", Usage: "remove the worktree but leave the branch in place"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			return runRemove(ctx, e, firstArg(cmd), cmd.Bool("force"), cmd.Bool("keep-branch"))
		},
	}
}

func runRemove(ctx context.Context, e *env, target string, force, keepBranch bool) error {
	if target == "" {
		return fmt.Errorf("remove requires a branch name or worktree path")
	}
	path, branch, err := e.resolveWorktreeTarget(ctx, target)
	if err != nil {
		return err
	}

	if !force {
		if dirty, err := e.gw.HasUncommittedChanges(ctx, path); err == nil && dirty {
			return fmt.Errorf("%s has uncommitted changes; pass --force to remove anyway", branch)
		}
	}

	if err := e.gw.RemoveWorktree(ctx, e.repoDir, path, force); err != nil {
		return fmt.Errorf("removing worktree: %w", err)
	}
	e.rt.Status(fmt.Sprintf("removed worktree %s", path))

	if keepBranch || branch == "" {
		return nil
	}
	if err := e.gw.DeleteBranch(ctx, e.repoDir, branch, force); err != nil {
		return fmt.Errorf("deleting branch %s (pass --force to delete an unmerged branch): %w", branch, err)
	}
	_ = e.gw.WriteBranchConfig(ctx, e.repoDir, models.BranchName(branch), "marker", "")
	e.rt.Status(fmt.Sprintf("deleted branch %s", branch))
	return nil
}
