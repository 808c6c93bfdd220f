// Package directive implements the shell-integration directive channel
// (spec §4.H): a side channel through which the tool asks the parent shell
// to change directory or re-exec a command, since a child process has no
// native way to mutate its parent's state. Grounded on no direct teacher
// equivalent — the teacher's TUI *is* the interactive shell, so it mutates
// its own process directly — generalized from the shell-quoting helpers in
// internal/multiplexer/shell.go into an append-only file writer.
package directive

import (
	"fmt"
	"os"

	"github.com/worktrunk/worktrunk/internal/multiplexer"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// FileEnvVar is the environment variable the shell wrapper exports before
// invoking the binary, naming the temp file it will source on exit. It is
// the same constant the VCS Gateway scrubs from every child process it
// spawns (internal/vcsgit.DirectiveEnvVar); defined once there since that
// package has no dependency on this one.
const FileEnvVar = vcsgit.DirectiveEnvVar

// Sink appends directive fragments to the file named by FileEnvVar. A zero
// Sink (no path configured) is a valid no-op sink, per spec §4.H's "if the
// environment variable is not set, the binary treats directives as no-ops".
type Sink struct {
	path string
}

// New resolves a Sink from the environment. Active reports whether a
// directive file was actually configured, so callers can choose the
// exec-as-child-process fallback and print the installation hint.
func New() *Sink {
	return &Sink{path: os.Getenv(FileEnvVar)}
}

// NewAt builds a Sink writing to an explicit path, bypassing the
// environment lookup (used by tests and by anything that has already
// resolved the path itself).
func NewAt(path string) *Sink {
	return &Sink{path: path}
}

// Active reports whether this sink actually writes anywhere.
func (s *Sink) Active() bool {
	return s != nil && s.path != ""
}

// ChangeDirectory appends a `cd '<path>'` directive, quoted the same way
// the teacher quotes shell arguments (internal/multiplexer.ShellQuote),
// so the parent shell ends up in dir once it sources the directive file.
func (s *Sink) ChangeDirectory(dir string) error {
	return s.append(fmt.Sprintf("cd %s", multiplexer.ShellQuote(dir)))
}

// Exec appends a generic command line for the parent shell to re-exec
// under the user's own shell, verbatim — the tool never shell-quotes this
// one for the caller, since the whole point is letting the shell interpret
// it (spec §3's "a generic exec-shaped command string").
func (s *Sink) Exec(cmdline string) error {
	return s.append(fmt.Sprintf("exec %s", cmdline))
}

// append writes line plus a trailing newline in one Write call so a
// crashed process never leaves a half-written directive for the wrapper to
// read (spec §4.H: "appended atomically enough that a crashed binary never
// leaves a half-written cd command").
func (s *Sink) append(line string) error {
	if !s.Active() {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// ScrubEnv returns env with the directive-file variable removed, so no
// child process the tool spawns can write to its own directive channel
// (spec §4.H, enforced by the VCS Gateway for git subprocesses and reused
// here for any other child process the commands layer spawns, e.g. the
// user's editor).
func ScrubEnv(env []string) []string {
	out := make([]string, 0, len(env))
	prefix := FileEnvVar + "="
	for _, kv := range env {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			continue
		}
		out = append(out, kv)
	}
	return out
}
