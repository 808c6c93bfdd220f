package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/worktrunk/worktrunk/internal/models"
)

// statusCommand reads or writes a worktree's status-marker config key
// (spec.md §4.C's `status_marker` fact, supplemented per SPEC_FULL.md §5:
// the `list` command only ever reads this value, so something has to be
// able to set it). Grounded on the teacher's renameCommand's "look up a
// worktree by name, validate, mutate one field" shape.
func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show or set a worktree's status marker",
		ArgsUsage: "<branch|path> [marker]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clear", Usage: "remove the status marker"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			target := ""
			marker := ""
			if cmd.Args().Len() > 0 {
				target = cmd.Args().Get(0)
			}
			if cmd.Args().Len() > 1 {
				marker = cmd.Args().Get(1)
			}
			return runStatus(ctx, e, target, marker, cmd.Bool("clear"))
		},
	}
}

func runStatus(ctx context.Context, e *env, target, marker string, clear bool) error {
	if target == "" {
		return fmt.Errorf("status requires a branch name or worktree path")
	}
	_, branch, err := e.resolveWorktreeTarget(ctx, target)
	if err != nil {
		return err
	}
	if branch == "" {
		return fmt.Errorf("%s has no branch to attach a status marker to", target)
	}

	if clear {
		if err := e.gw.WriteBranchConfig(ctx, e.repoDir, models.BranchName(branch), "marker", ""); err != nil {
			return err
		}
		e.rt.Status(fmt.Sprintf("cleared status marker for %s", branch))
		return nil
	}

	if marker == "" {
		current, err := e.gw.ReadBranchConfig(ctx, e.repoDir, models.BranchName(branch), "marker")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(primaryWriter{e.rt}, current)
		return err
	}

	if err := e.gw.WriteBranchConfig(ctx, e.repoDir, models.BranchName(branch), "marker", marker); err != nil {
		return err
	}
	e.rt.Status(fmt.Sprintf("set status marker for %s to %q", branch, marker))
	return nil
}
