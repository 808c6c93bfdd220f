// Package commands implements the worktrunk CLI command set wired through
// github.com/urfave/cli/v3 (spec §4.I), plus small worktree-creation
// helpers such as carrying editor configuration and untracked scratch
// files into a freshly created worktree. Each subcommand's Action
// constructs a *runtime.Context and delegates to internal/orchestrate,
// internal/directive, and the VCS Gateway — the same shape as the
// teacher's cmd/lazyworktree/commands.go Action closures, generalized
// from one package (main) into a package other commands (and cmd/wt)
// import.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/collect"
	"github.com/worktrunk/worktrunk/internal/config"
	"github.com/worktrunk/worktrunk/internal/directive"
	"github.com/worktrunk/worktrunk/internal/log"
	"github.com/worktrunk/worktrunk/internal/models"
	"github.com/worktrunk/worktrunk/internal/runtime"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// Root builds the top-level *cli.Command tree, the direct counterpart of
// the teacher's appiCli.Command assembled in cmd/lazyworktree/main.go.
func Root(version string) *cli.Command {
	return &cli.Command{
		Name:    "wt",
		Usage:   "manage git worktree lifecycle",
		Version: version,
		Commands: []*cli.Command{
			listCommand(),
			switchCommand(),
			mergeCommand(),
			removeCommand(),
			selectCommand(),
			statusCommand(),
			shellInitCommand(),
		},
	}
}

// env bundles everything a command Action needs once flags are parsed:
// config, gateway, cache, registry, and the runtime Context. Built fresh
// per invocation (mirroring the teacher's per-Action loadCLIConfigFunc
// call) rather than held in a package-level global.
type env struct {
	cfg     *config.AppConfig
	gw      *vcsgit.Gateway
	cache   *cache.Cache
	rt      *runtime.Context
	repoDir string
}

func newEnv(ctx context.Context) (*env, error) {
	repoDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		return nil, err
	}

	gw := vcsgit.NewGateway("")
	gw.SetWarnFunc(func(format string, args ...any) {
		log.VerbosePrintf(format, args...)
	})

	c := cache.New()
	if gitDir, err := gw.RunRaw(ctx, repoDir, nil, "rev-parse", "--git-common-dir"); err == nil && gitDir != "" {
		c.SetDiskDir(filepath.Join(gitDir, models.CacheDirName))
	}

	return &env{
		cfg:     cfg,
		gw:      gw,
		cache:   c,
		rt:      runtime.New(gw, c),
		repoDir: repoDir,
	}, nil
}

func (e *env) registry() []collect.Collector {
	return collect.Registry(e.gw, collect.NewCodeforge(), templateExpander{})
}

// resolveWorktreeTarget maps a user-given positional argument (branch name
// or worktree path) to the matching models.Worktree, the same "accept
// either a path or a branch" flexibility as the teacher's delete/rename
// commands (cmd/lazyworktree/commands.go's handleDeleteAction).
func (e *env) resolveWorktreeTarget(ctx context.Context, arg string) (path string, branch string, err error) {
	worktrees, err := e.gw.ListWorktrees(ctx, e.repoDir)
	if err != nil {
		return "", "", err
	}
	for _, wt := range worktrees {
		if wt.Path == arg || string(wt.Branch) == arg {
			return wt.Path, string(wt.Branch), nil
		}
	}
	return "", "", fmt.Errorf("no worktree matches %q", arg)
}

func firstArg(cmd *cli.Command) string {
	if cmd.Args().Len() == 0 {
		return ""
	}
	return cmd.Args().Get(0)
}
