// Package style decides whether ANSI styling applies to a given output
// stream and separates display text from the style applied to it, so that
// width computation (internal/dispwidth) never has to strip escape codes.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Mode is the resolved color capability for a stream.
type Mode int

const (
	// ModeNone emits no ANSI sequences at all.
	ModeNone Mode = iota
	// ModeANSI emits color/attribute sequences.
	ModeANSI
)

// DetectMode decides whether f should receive ANSI sequences, honoring
// (in priority order) WT_NO_COLOR/NO_COLOR, WT_FORCE_COLOR/CLICOLOR_FORCE,
// and finally whether f itself looks like a terminal.
func DetectMode(f *os.File) Mode {
	if envTruthy("WT_NO_COLOR") || envTruthy("NO_COLOR") {
		return ModeNone
	}
	if envTruthy("WT_FORCE_COLOR") || envTruthy("CLICOLOR_FORCE") {
		return ModeANSI
	}
	if f == nil {
		return ModeNone
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return ModeANSI
	}
	return ModeNone
}

func envTruthy(key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return v != "" && v != "0"
}

// Sink bundles a lipgloss renderer locked to a specific Mode so command
// logic never has to branch on whether color is active: it always calls
// Style.Render, and ModeNone sinks render it away.
type Sink struct {
	mode     Mode
	renderer *lipgloss.Renderer
}

// NewSink builds a styling sink for the given stream.
func NewSink(f *os.File) *Sink {
	mode := DetectMode(f)
	var profile termenv.Profile
	if mode == ModeNone {
		profile = termenv.Ascii
	} else {
		profile = termenv.EnvColorProfile()
	}
	r := lipgloss.NewRenderer(f)
	r.SetColorProfile(lipgloss.ColorProfile(profile))
	r.SetHasDarkBackground(DetectDarkBackground())
	return &Sink{mode: mode, renderer: r}
}

// Mode reports the sink's resolved color mode.
func (s *Sink) Mode() Mode { return s.mode }

// Active reports whether the sink will emit ANSI sequences.
func (s *Sink) Active() bool { return s.mode == ModeANSI }

// NewStyle returns a lipgloss.Style bound to this sink's renderer, so
// Render() respects the sink's color mode automatically.
func (s *Sink) NewStyle() lipgloss.Style { return s.renderer.NewStyle() }

// DetectDarkBackground probes the terminal's background color via OSC 11
// (through termenv) with a short timeout, defaulting to dark when the
// terminal doesn't answer (most CI/non-interactive contexts).
func DetectDarkBackground() bool {
	out := termenv.NewOutput(os.Stdout)
	return out.HasDarkBackground()
}

// Dim renders text in a faint style, using this sink's own renderer and
// color profile. Used by the two-phase url/url_live cell update (spec
// §4.D): the URL cell is first written in normal style, then dimmed if
// the liveness probe later resolves false.
func (s *Sink) Dim(text string) string {
	return s.renderer.NewStyle().Faint(true).Render(text)
}

// Dim is the package-level convenience form for callers that don't hold
// a Sink (e.g. the table renderer, which is constructed before a Sink is
// threaded through); it applies lipgloss's default renderer.
func Dim(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}
