package collect

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/worktrunk/worktrunk/internal/cache"
)

var errURLLiveNeedsURL = errors.New("url_live requires the url fact to have already resolved")

// TemplateExpander expands a branch's url-column template (e.g.
// "https://{{.Branch}}.preview.example.com") into a concrete URL. It is a
// narrow seam so internal/collect never imports the template engine
// itself — the expander implementation lives with the config/templating
// code, out of this package's scope.
type TemplateExpander interface {
	Expand(tmpl string, in Input) (string, error)
}

// URLCollector resolves the url fact: the branch's preview/deploy URL,
// built from the configured template with no network access.
type URLCollector struct {
	Expander TemplateExpander
}

func (c *URLCollector) Kind() cache.FactKind { return cache.FactURL }

func (c *URLCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	if in.URLTemplate == "" || c.Expander == nil {
		return nil, nil
	}
	expanded, err := c.Expander.Expand(in.URLTemplate, in)
	if err != nil {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	return expanded, nil
}

// urlLiveDialTimeout bounds how long URLLiveCollector waits for a TCP
// handshake before declaring the URL unreachable.
const urlLiveDialTimeout = 2 * time.Second

// URLLiveCollector resolves the url_live fact: whether the branch's url
// fact currently accepts a TCP connection. It depends on url having
// already been collected for the same row; the orchestrator is
// responsible for sequencing (spec §4.C lists url_live as derived).
type URLLiveCollector struct {
	// Dialer defaults to net.Dialer when nil.
	Dialer interface {
		DialContext(ctx context.Context, network, address string) (net.Conn, error)
	}
}

func (c *URLLiveCollector) Kind() cache.FactKind { return cache.FactURLLive }

// CollectForURL is called by the orchestrator once it has resolved the
// url fact for the same row; rawURL is that fact's value.
func (c *URLLiveCollector) CollectForURL(ctx context.Context, rawURL string) (cache.FactValue, error) {
	if rawURL == "" {
		return nil, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, &CollectorError{Kind: c.Kind(), Err: err}
	}
	address := parsed.Host
	if parsed.Port() == "" {
		if parsed.Scheme == "https" {
			address = net.JoinHostPort(parsed.Hostname(), "443")
		} else {
			address = net.JoinHostPort(parsed.Hostname(), "80")
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, urlLiveDialTimeout)
	defer cancel()

	dial := c.dialer().DialContext
	conn, err := dial(dialCtx, "tcp", address)
	if err != nil {
		return false, nil
	}
	_ = conn.Close()
	return true, nil
}

// Collect satisfies the Collector interface but is never invoked directly
// by the registry dispatch loop; url_live always runs via CollectForURL
// once its url dependency is known. It returns a CollectorError if called
// without that context.
func (c *URLLiveCollector) Collect(ctx context.Context, in Input) (cache.FactValue, error) {
	return nil, &CollectorError{Kind: c.Kind(), Err: errURLLiveNeedsURL}
}

func (c *URLLiveCollector) dialer() interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
} {
	if c.Dialer != nil {
		return c.Dialer
	}
	return &net.Dialer{Timeout: urlLiveDialTimeout}
}
