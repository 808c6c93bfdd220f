package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/worktrunk/worktrunk/internal/models"
)

// switchCommand moves the caller's shell into a different worktree by
// emitting a `cd` directive (spec §4.H). Grounded on the teacher's
// renameCommand/createCommand Action shape (cmd/lazyworktree/commands.go),
// generalized from "mutate the TUI's own process" into "ask the parent
// shell to mutate itself".
func switchCommand() *cli.Command {
	return &cli.Command{
		Name:      "switch",
		Aliases:   []string{"sw"},
		Usage:     "Switch the shell's working directory to a worktree",
		ArgsUsage: "<branch|path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			return runSwitch(ctx, e, firstArg(cmd))
		},
	}
}

func runSwitch(ctx context.Context, e *env, target string) error {
	if target == "" {
		return fmt.Errorf("switch requires a branch name or worktree path")
	}
	path, branch, err := e.resolveWorktreeTarget(ctx, target)
	if err != nil {
		return err
	}

	// Record where we switched from so a future `wt switch -` (or similar
	// toggle) can return to it, mirroring git's own "@{-1}" shorthand.
	current, err := e.gw.CurrentBranch(ctx, e.repoDir)
	if err == nil && current != "" && current != branch {
		_ = e.gw.WriteBranchConfig(ctx, e.repoDir, models.BranchName(branch), "previous-branch", current)
	}

	if !e.rt.Directive.Active() {
		e.rt.Status(fmt.Sprintf("no shell integration installed; run `wt shell-init` to enable `cd`-on-switch (falling back to printing %s)", path))
		fmt.Fprintln(os.Stdout, path)
		return nil
	}
	return e.rt.Directive.ChangeDirectory(path)
}
