package vcsgit

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktrunk/worktrunk/internal/models"
)

func TestNewGateway(t *testing.T) {
	t.Parallel()
	g := NewGateway("")
	assert.Equal(t, "git", g.gitBin)
	assert.NotNil(t, g.sem)

	expected := runtime.NumCPU() * 2
	if expected < 4 {
		expected = 4
	}
	if expected > 32 {
		expected = 32
	}

	count := 0
	for i := 0; i < expected; i++ {
		select {
		case <-g.sem:
			count++
		default:
		}
	}
	assert.Equal(t, expected, count)
}

func TestAcquireReleaseRoundTrips(t *testing.T) {
	t.Parallel()
	g := NewGateway("git")
	before := len(g.sem)
	release := g.acquire()
	assert.Equal(t, before-1, len(g.sem))
	release()
	assert.Equal(t, before, len(g.sem))
}

func TestSanitizedEnvStripsDirectiveVar(t *testing.T) {
	t.Setenv(DirectiveEnvVar, "/tmp/should-not-leak")
	env := sanitizedEnv()
	for _, kv := range env {
		assert.False(t, len(kv) >= len(DirectiveEnvVar) && kv[:len(DirectiveEnvVar)] == DirectiveEnvVar,
			"directive env var leaked into child env: %s", kv)
	}
}

func TestRunGitVersion(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	g := NewGateway("")
	out, err := g.RunRaw(context.Background(), "", nil, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "git version")
}

func TestRunGitAllowedExitCode(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	g := NewGateway("")
	_, err := g.RunRaw(context.Background(), t.TempDir(), []int{128}, "symbolic-ref", "--short", "HEAD")
	assert.NoError(t, err)
}

func TestRunGitDisallowedExitCodeWrapsGatewayError(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	g := NewGateway("")
	_, err := g.RunRaw(context.Background(), t.TempDir(), nil, "not-a-real-subcommand")
	require.Error(t, err)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.NotZero(t, gwErr.ExitCode)
}

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

func commitFile(t *testing.T, dir, name, content, msg string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-m", msg)
	return runGit(t, dir, "rev-parse", "HEAD")
}

func TestListWorktreesMainOnly(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	g := NewGateway("")
	worktrees, err := g.ListWorktrees(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, worktrees, 1)
	assert.True(t, worktrees[0].IsMain)
	assert.Equal(t, "main", string(worktrees[0].Branch))
}

func TestListWorktreesIncludesLinkedWorktree(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	linked := filepath.Join(t.TempDir(), "linked")
	runGit(t, repo, "worktree", "add", "-b", "feature", linked)

	g := NewGateway("")
	worktrees, err := g.ListWorktrees(context.Background(), repo)
	require.NoError(t, err)
	require.Len(t, worktrees, 2)
	assert.False(t, worktrees[1].IsMain)
	assert.Equal(t, "feature", string(worktrees[1].Branch))
}

func TestDefaultBranchFallsBackToMain(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	g := NewGateway("")
	branch, err := g.DefaultBranch(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, "main", string(branch))
}

func TestIsBare(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	runGit(t, repo, "init", "--bare")

	g := NewGateway("")
	bare, err := g.IsBare(context.Background(), repo)
	require.NoError(t, err)
	assert.True(t, bare)
}

func TestRevListLeftRight(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	runGit(t, repo, "checkout", "-b", "feature")
	commitFile(t, repo, "b.txt", "2", "feature commit")
	runGit(t, repo, "checkout", "main")
	commitFile(t, repo, "c.txt", "3", "main commit")

	g := NewGateway("")
	ahead, behind, err := g.RevListLeftRight(context.Background(), repo, "main", "feature")
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 1, behind)
}

func TestPorcelainStatusDetectsUntrackedAndModified(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	require.NoError(t, os.WriteFile(filepath.Join(repo, "a.txt"), []byte("changed"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "new.txt"), []byte("new"), 0o600))

	g := NewGateway("")
	st, err := g.PorcelainStatus(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Untracked)
	assert.Equal(t, 1, st.Modified)
	assert.True(t, st.Flags.Has(models.StatusUntracked))
}

func TestBatchCommitMeta(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	sha := commitFile(t, repo, "a.txt", "1", "initial commit")
	sha = trimNL(sha)

	g := NewGateway("")
	metas, err := g.BatchCommitMeta(context.Background(), repo, []string{sha})
	require.NoError(t, err)
	meta, ok := metas[sha]
	require.True(t, ok)
	assert.Equal(t, "initial commit", meta.Subject)
}

func TestCommitIsAncestorOf(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	first := trimNL(commitFile(t, repo, "a.txt", "1", "first"))
	second := trimNL(commitFile(t, repo, "b.txt", "2", "second"))

	g := NewGateway("")
	ok, err := g.CommitIsAncestorOf(context.Background(), repo, first, second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.CommitIsAncestorOf(context.Background(), repo, second, first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadWriteBranchConfigRoundTrips(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "a.txt", "1", "initial")

	g := NewGateway("")
	got, err := g.ReadBranchConfig(context.Background(), repo, "feature", "status_marker")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, g.WriteBranchConfig(context.Background(), repo, "feature", "status_marker", "reviewed"))
	got, err = g.ReadBranchConfig(context.Background(), repo, "feature", "status_marker")
	require.NoError(t, err)
	assert.Equal(t, "reviewed", got)

	require.NoError(t, g.WriteBranchConfig(context.Background(), repo, "feature", "status_marker", ""))
	got, err = g.ReadBranchConfig(context.Background(), repo, "feature", "status_marker")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func trimNL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
