package collect

import (
	"context"
	"errors"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/models"
	"github.com/worktrunk/worktrunk/internal/vcsgit"
)

func initRepo(t *testing.T, dir string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v failed: %s", args, out)
	return string(out)
}

func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-m", msg)
}

func newTestRepoWithBranch(t *testing.T) (repo string, gw *vcsgit.Gateway) {
	t.Helper()
	repo = t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")
	runGit(t, repo, "checkout", "-b", "feature")
	commitFile(t, repo, "b.txt", "2", "feature work")
	runGit(t, repo, "checkout", "main")
	return repo, vcsgit.NewGateway("")
}

func TestWorkingTreeStatusCollector(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")
	require.NoError(t, os.WriteFile(filepath.Join(repo, "untracked.txt"), []byte("x"), 0o600))

	c := &WorkingTreeStatusCollector{Gateway: vcsgit.NewGateway("")}
	in := Input{Worktree: models.Worktree{Path: repo, Branch: "main"}}
	value, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	st, ok := value.(models.WorkingTreeStatus)
	require.True(t, ok)
	assert.Equal(t, 1, st.Untracked)
	assert.Equal(t, cache.FactWorkingTreeStatus, c.Kind())
}

func TestMainDivergenceCollector(t *testing.T) {
	t.Parallel()
	repo, gw := newTestRepoWithBranch(t)

	c := &MainDivergenceCollector{Gateway: gw}
	in := Input{
		Worktree:      models.Worktree{Path: repo, Branch: "feature"},
		DefaultBranch: "main",
	}
	value, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	ab, ok := value.(models.AheadBehind)
	require.True(t, ok)
	assert.Equal(t, 1, ab.Ahead)
	assert.Equal(t, 0, ab.Behind)
}

func TestMainDivergenceCollectorMissingBranch(t *testing.T) {
	t.Parallel()
	c := &MainDivergenceCollector{Gateway: vcsgit.NewGateway("")}
	_, err := c.Collect(context.Background(), Input{})
	require.Error(t, err)
	var collErr *CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, cache.FactMainDivergence, collErr.Kind)
}

func TestUpstreamDivergenceCollectorAbsentWhenNoUpstream(t *testing.T) {
	t.Parallel()
	c := &UpstreamDivergenceCollector{Gateway: vcsgit.NewGateway("")}
	value, err := c.Collect(context.Background(), Input{Worktree: models.Worktree{Branch: "feature"}})
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestMainDiffstatCollector(t *testing.T) {
	t.Parallel()
	repo, gw := newTestRepoWithBranch(t)

	c := &MainDiffstatCollector{Gateway: gw}
	in := Input{
		Worktree:      models.Worktree{Path: repo, Branch: "feature"},
		DefaultBranch: "main",
	}
	value, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	ds, ok := value.(models.DiffStat)
	require.True(t, ok)
	assert.Equal(t, 1, ds.Added)
}

func TestConflictsWithMainCollectorNoConflict(t *testing.T) {
	t.Parallel()
	repo, gw := newTestRepoWithBranch(t)

	c := &ConflictsWithMainCollector{Gateway: gw}
	in := Input{
		Worktree:      models.Worktree{Path: repo, Branch: "feature"},
		DefaultBranch: "main",
	}
	value, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, false, value)
}

func TestStatusMarkerCollectorRoundTrip(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")
	gw := vcsgit.NewGateway("")

	c := &StatusMarkerCollector{Gateway: gw}
	in := Input{Worktree: models.Worktree{Path: repo, Branch: "main"}}

	value, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, gw.WriteBranchConfig(context.Background(), repo, "main", "marker", "🔥"))
	value, err = c.Collect(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "🔥", value)
}

func TestIntegrationTargetCollectorAbsentByDefault(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	c := &IntegrationTargetCollector{Gateway: vcsgit.NewGateway("")}
	in := Input{Worktree: models.Worktree{Path: repo, Branch: "main"}}
	value, err := c.Collect(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, value)
}

type fakeExpander struct {
	result string
	err    error
}

func (f *fakeExpander) Expand(tmpl string, in Input) (string, error) {
	return f.result, f.err
}

func TestURLCollector(t *testing.T) {
	t.Parallel()
	c := &URLCollector{Expander: &fakeExpander{result: "https://feature.preview.example.com"}}
	value, err := c.Collect(context.Background(), Input{URLTemplate: "https://{{.Branch}}.preview.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://feature.preview.example.com", value)
}

func TestURLCollectorNoTemplate(t *testing.T) {
	t.Parallel()
	c := &URLCollector{Expander: &fakeExpander{result: "unused"}}
	value, err := c.Collect(context.Background(), Input{})
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestURLCollectorExpanderError(t *testing.T) {
	t.Parallel()
	c := &URLCollector{Expander: &fakeExpander{err: errors.New("bad template")}}
	_, err := c.Collect(context.Background(), Input{URLTemplate: "{{.Bogus}}"})
	require.Error(t, err)
}

type fakeDialer struct {
	shouldFail bool
}

func (f *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if f.shouldFail {
		return nil, errors.New("connection refused")
	}
	server, client := net.Pipe()
	_ = server.Close()
	return client, nil
}

func TestURLLiveCollectorForURLReachable(t *testing.T) {
	t.Parallel()
	c := &URLLiveCollector{Dialer: &fakeDialer{}}
	value, err := c.CollectForURL(context.Background(), "https://feature.preview.example.com")
	require.NoError(t, err)
	assert.Equal(t, true, value)
}

func TestURLLiveCollectorForURLUnreachable(t *testing.T) {
	t.Parallel()
	c := &URLLiveCollector{Dialer: &fakeDialer{shouldFail: true}}
	value, err := c.CollectForURL(context.Background(), "https://feature.preview.example.com")
	require.NoError(t, err)
	assert.Equal(t, false, value)
}

func TestURLLiveCollectorForURLEmpty(t *testing.T) {
	t.Parallel()
	c := &URLLiveCollector{Dialer: &fakeDialer{}}
	value, err := c.CollectForURL(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestURLLiveCollectorDirectCollectRequiresURL(t *testing.T) {
	t.Parallel()
	c := &URLLiveCollector{}
	_, err := c.Collect(context.Background(), Input{})
	require.Error(t, err)
}

func TestRegistryIncludesClosedFactKindSet(t *testing.T) {
	t.Parallel()
	gw := vcsgit.NewGateway("")
	cf := NewCodeforge()
	registry := Registry(gw, cf, &fakeExpander{})

	kinds := make(map[cache.FactKind]bool)
	for _, coll := range registry {
		kinds[coll.Kind()] = true
	}
	for _, kind := range []cache.FactKind{
		cache.FactWorkingTreeStatus,
		cache.FactMainDivergence,
		cache.FactUpstreamDivergence,
		cache.FactMainDiffstat,
		cache.FactConflictsWithMain,
		cache.FactPRStatus,
		cache.FactCIStatus,
		cache.FactURL,
		cache.FactURLLive,
		cache.FactStatusMarker,
		cache.FactIntegrationTarget,
		cache.FactPreviousBranch,
	} {
		assert.True(t, kinds[kind], "missing collector for %s", kind)
	}
}
