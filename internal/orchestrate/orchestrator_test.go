package orchestrate

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktrunk/worktrunk/internal/cache"
	"github.com/worktrunk/worktrunk/internal/collect"
	"github.com/worktrunk/worktrunk/internal/layout"
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

func newOrchestrator(gw *vcsgit.Gateway) *Orchestrator {
	registry := collect.Registry(gw, collect.NewCodeforge(), nil)
	return New(gw, cache.New(), registry)
}

func TestRunReturnsErrorOnInvalidRepo(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	gw := vcsgit.NewGateway("")
	o := newOrchestrator(gw)

	_, _, err := o.Run(context.Background(), Options{RepoDir: t.TempDir()})
	assert.Error(t, err, "a non-repository directory must fail Phase 1, never fall through to a skeleton")
}

func TestRunEmitsSkeletonWithCommitMetadata(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial commit")

	gw := vcsgit.NewGateway("")
	o := newOrchestrator(gw)
	o.WorkerCap = 1

	msgs, plan, err := o.Run(context.Background(), Options{RepoDir: repo, TerminalWidth: 120, SkeletonOnly: true})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Order, "Run must hand back the computed layout alongside the message channel")

	var rows []Message
	for m := range msgs {
		rows = append(rows, m)
	}
	require.Len(t, rows, 1, "a single-worktree repo should produce exactly one primary_row")
	row := rows[0]
	assert.Equal(t, MsgPrimaryRow, row.Kind)
	assert.Equal(t, "main", row.Row.Branch)
	assert.Equal(t, "initial commit", row.Row.Cells[layout.ColumnMessage])
	assert.NotEmpty(t, row.Row.Cells[layout.ColumnCommit])
}

func TestRunSkeletonOnlyEmitsNoCellUpdates(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	gw := vcsgit.NewGateway("")
	o := newOrchestrator(gw)

	msgs, _, err := o.Run(context.Background(), Options{RepoDir: repo, TerminalWidth: 120, SkeletonOnly: true})
	require.NoError(t, err)

	for m := range msgs {
		assert.NotEqual(t, MsgCellUpdate, m.Kind, "WT_SKELETON_ONLY must short-circuit before Phase 3")
	}
}

func TestRunEnvVarAlsoForcesSkeletonOnly(t *testing.T) {
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	t.Setenv(SkeletonOnlyEnvVar, "1")

	gw := vcsgit.NewGateway("")
	o := newOrchestrator(gw)

	msgs, _, err := o.Run(context.Background(), Options{RepoDir: repo, TerminalWidth: 120})
	require.NoError(t, err)
	for m := range msgs {
		assert.NotEqual(t, MsgCellUpdate, m.Kind)
	}
}

func TestRunPhase3ProducesCellUpdatesForWorkingTreeStatus(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	gw := vcsgit.NewGateway("")
	o := newOrchestrator(gw)
	o.WorkerCap = 2

	msgs, _, err := o.Run(context.Background(), Options{RepoDir: repo, TerminalWidth: 120})
	require.NoError(t, err)

	sawStatusUpdate := false
	for m := range msgs {
		if m.Kind == MsgCellUpdate && m.Cell.Column == layout.ColumnStatus {
			sawStatusUpdate = true
		}
	}
	assert.True(t, sawStatusUpdate, "working tree status should be collected and routed to the STATUS column")
}

func TestRunRowOrderingPutsMainFirst(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")
	worktreeDir := t.TempDir()
	runGit(t, repo, "worktree", "add", worktreeDir, "-b", "feature")
	// Both worktrees point at the same commit, so only the main-first rule
	// decides the order checked below.
	time.Sleep(2 * time.Millisecond)

	gw := vcsgit.NewGateway("")
	o := newOrchestrator(gw)

	msgs, _, err := o.Run(context.Background(), Options{RepoDir: repo, TerminalWidth: 120, SkeletonOnly: true})
	require.NoError(t, err)

	var rows []Message
	for m := range msgs {
		rows = append(rows, m)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "main", rows[0].Row.Branch, "the main worktree must always be the first row")
}

func TestWantsCollectorGatesOnFullAndURLTemplate(t *testing.T) {
	t.Parallel()
	assert.True(t, wantsCollector(cache.FactWorkingTreeStatus, Options{}))
	assert.False(t, wantsCollector(cache.FactCIStatus, Options{}))
	assert.True(t, wantsCollector(cache.FactCIStatus, Options{Full: true}))
	assert.False(t, wantsCollector(cache.FactURL, Options{}))
	assert.True(t, wantsCollector(cache.FactURL, Options{URLTemplate: "https://x/{{.Branch}}"}))
}

func TestWorkerCapDefaultsArePositive(t *testing.T) {
	t.Parallel()
	o := &Orchestrator{}
	assert.Positive(t, o.workerCap())

	o.WorkerCap = 7
	assert.Equal(t, 7, o.workerCap())
}

func TestTTLForDistinguishesCommitPinnedFromTimeBased(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Duration(0), ttlFor(cache.FactMainDivergence))
	assert.Positive(t, ttlFor(cache.FactCIStatus))
	assert.Positive(t, ttlFor(cache.FactWorkingTreeStatus))
}

func TestFindURLLiveCollectorLocatesIt(t *testing.T) {
	t.Parallel()
	gw := vcsgit.NewGateway("")
	registry := collect.Registry(gw, collect.NewCodeforge(), nil)
	ul := findURLLiveCollector(registry)
	require.NotNil(t, ul)
	assert.Equal(t, cache.FactURLLive, ul.Kind())
}
