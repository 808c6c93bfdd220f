// Package runtime implements the Output System (spec §4.I): a single
// process-wide bundle of the VCS Gateway, Fact Cache, and the three output
// sinks (primary, status, directive), constructed once per command by
// internal/commands' newEnv and passed down explicitly — the teacher's own "from global singletons to
// a context object" shape, generalized from its single app-wide *App
// struct into a narrower Context carrying only what commands need.
package runtime

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/directive"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

// Context bundles the resources every command needs, obtained once at
// startup and threaded down explicitly rather than read from package-level
// globals (spec §8's "From global singletons to a context object"). The
// one exception, matching the teacher, is the debug logger
// (internal/log), which stays process-global.
type Context struct {
	Gateway   *vcsgit.Gateway
	Cache     *cache.Cache
	Directive *directive.Sink

	primary io.Writer
	status  io.Writer
}

// New constructs a Context with the real process stdout/stderr as its
// primary/status sinks and a directive sink resolved from the environment.
func New(gw *vcsgit.Gateway, c *cache.Cache) *Context {
	return &Context{
		Gateway:   gw,
		Cache:     c,
		Directive: directive.New(),
		primary:   os.Stdout,
		status:    os.Stderr,
	}
}

// NewWithWriters builds a Context against explicit writers and directive
// sink, for tests that must not touch the real stdout/stderr or
// environment.
func NewWithWriters(gw *vcsgit.Gateway, c *cache.Cache, d *directive.Sink, primary, status io.Writer) *Context {
	return &Context{Gateway: gw, Cache: c, Directive: d, primary: primary, status: status}
}

// WritePrimary writes the table/JSON output. A broken pipe (the common
// `wt list | head` case) is swallowed and reported as such so main can
// exit 0 without an error message (spec §4's "broken-pipe on stdout is a
// clean shutdown"); any other write error is returned to the caller.
func (c *Context) WritePrimary(p []byte) (int, error) {
	n, err := c.primary.Write(p)
	if isBrokenPipe(err) {
		return n, ErrBrokenPipe
	}
	return n, err
}

// Status writes a progress/warning/hint line to the status sink (stderr),
// never to primary output, per spec §4.H's "shell-integration directives
// are never written to primary output; primary output is never written to
// the directive file" — the same separation applies to status lines.
func (c *Context) Status(line string) {
	_, _ = io.WriteString(c.status, line)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		_, _ = io.WriteString(c.status, "\n")
	}
}

// ErrBrokenPipe is returned by WritePrimary when the consumer on the other
// end of stdout has gone away; callers should treat it as a clean exit(0),
// not an error to surface to the user.
var ErrBrokenPipe = errors.New("runtime: broken pipe on primary output")

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
