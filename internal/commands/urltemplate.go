package commands

import (
	"strings"
	"text/template"

	"github.com/worktrunk/worktrunk/internal/collect"
)

// templateExpander implements collect.TemplateExpander with the stdlib
// text/template engine (DESIGN.md's Open Question decision: no third-party
// templating library appears anywhere in the corpus, so text/template is
// the one ambient concern intentionally left on the standard library).
type templateExpander struct{}

// templateData is the placeholder vocabulary available to a url_template
// config value, e.g. "https://{{.Branch}}.preview.example.com".
type templateData struct {
	Branch        string
	Path          string
	DefaultBranch string
	Upstream      string
	RemoteURL     string
}

func (templateExpander) Expand(tmpl string, in collect.Input) (string, error) {
	t, err := template.New("url").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	data := templateData{
		Branch:        string(in.Worktree.Branch),
		Path:          in.Worktree.Path,
		DefaultBranch: string(in.DefaultBranch),
		Upstream:      in.Upstream,
		RemoteURL:     in.RemoteURL,
	}
	if err := t.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}
