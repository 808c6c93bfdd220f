// Package commands implements the worktrunk CLI command set wired through
// github.com/urfave/cli/v3 (spec §4.I), plus small worktree-creation helpers
// such as carrying editor configuration and untracked scratch files into a
// freshly created worktree.
package commands

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// editorConfigDirs are well-known per-project editor/assistant config
// directories that are useful in every worktree but are typically untracked
// (or gitignored), so a fresh `git worktree add` never carries them over.
var editorConfigDirs = []string{".vscode", ".idea", ".cursor", ".claude"}

// symlinkPath creates worktreeDir/rel as a symlink to mainDir/rel. It is a
// no-op (not an error) when the source path doesn't exist or the link is
// already in place, since LinkTopSymlinks calls it speculatively over a
// status listing that may be stale by the time it runs.
func symlinkPath(mainDir, worktreeDir, rel string) error {
	src := filepath.Join(mainDir, rel)
	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	dst := filepath.Join(worktreeDir, rel)
	if _, err := os.Lstat(dst); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	if err := os.Symlink(src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return err
	}
	return nil
}

// LinkTopSymlinks wires a newly created worktree (worktreePath) back to its
// main worktree (mainPath) so local-only state survives worktree creation:
// untracked and ignored files (read from statusFunc's porcelain output),
// well-known editor/assistant config directories, and a scratch tmp/
// directory. If worktreePath contains a .envrc, it best-effort runs `direnv
// allow` so direnv-managed environments don't require a manual step.
func LinkTopSymlinks(ctx context.Context, mainPath, worktreePath string, statusFunc func(context.Context, string) string) error {
	if mainPath == "" || worktreePath == "" {
		return errors.New("commands: LinkTopSymlinks: missing paths")
	}

	out := statusFunc(ctx, mainPath)
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 3 {
			continue
		}
		marker := line[:2]
		if marker != "??" && marker != "!!" {
			continue
		}
		rel := strings.TrimSpace(line[2:])
		if rel == "" {
			continue
		}
		if err := symlinkPath(mainPath, worktreePath, rel); err != nil {
			return err
		}
	}

	for _, dir := range editorConfigDirs {
		if err := symlinkPath(mainPath, worktreePath, dir); err != nil {
			return err
		}
	}

	tmpDir := filepath.Join(worktreePath, "tmp")
	if err := os.MkdirAll(tmpDir, 0o750); err != nil {
		return err
	}

	if _, err := os.Stat(filepath.Join(worktreePath, ".envrc")); err == nil {
		if _, lookErr := exec.LookPath("direnv"); lookErr == nil {
			// #nosec G204 -- fixed binary name and argument, directory is the freshly created worktree
			cmd := exec.CommandContext(ctx, "direnv", "allow", ".")
			cmd.Dir = worktreePath
			_ = cmd.Run()
		}
	}

	return nil
}
