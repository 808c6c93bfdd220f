package collect

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStubCommand(t *testing.T, name, envVar string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\nprintf '%s' \"$" + envVar + "\"\n"
	// #nosec G306 -- test helper needs an executable stub in a temp dir.
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		t.Fatalf("write stub command: %v", err)
	}
	pathEnv := os.Getenv("PATH")
	t.Setenv("PATH", dir+string(os.PathListSeparator)+pathEnv)
}

func TestDetectHost(t *testing.T) {
	t.Parallel()
	cases := []struct {
		url  string
		want Host
	}{
		{"git@github.com:org/repo.git", HostGitHub},
		{"https://github.com/org/repo.git", HostGitHub},
		{"git@gitlab.com:org/repo.git", HostGitLab},
		{"https://gitlab.example.com/org/repo.git", HostGitLab},
		{"https://bitbucket.org/org/repo.git", HostUnknown},
		{"", HostUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectHost(tc.url), tc.url)
	}
}

func TestFetchGitHubPRParsesView(t *testing.T) {
	writeStubCommand(t, "gh", "GH_OUTPUT")
	t.Setenv("GH_OUTPUT", `{"number":42,"state":"OPEN","title":"add thing","url":"https://github.com/o/r/pull/42","headRefName":"feature","baseRefName":"main","isDraft":false}`)

	cf := NewCodeforge()
	pr, err := cf.PRForWorktree(context.Background(), HostGitHub, t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, pr)
	assert.Equal(t, 42, pr.Number)
	assert.Equal(t, "OPEN", pr.State)
	assert.Equal(t, "feature", pr.Branch)
	assert.Equal(t, "main", pr.BaseBranch)
}

func TestFetchGitHubPRNoneFound(t *testing.T) {
	writeStubCommand(t, "gh", "GH_OUTPUT")
	t.Setenv("GH_OUTPUT", "")

	cf := NewCodeforge()
	pr, err := cf.PRForWorktree(context.Background(), HostGitHub, t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, pr)
}

func TestFetchGitLabMRParsesView(t *testing.T) {
	writeStubCommand(t, "glab", "GLAB_OUTPUT")
	t.Setenv("GLAB_OUTPUT", `{"iid":7,"state":"opened","title":"fix thing","web_url":"https://gitlab.com/o/r/-/merge_requests/7","source_branch":"feature","target_branch":"main"}`)

	cf := NewCodeforge()
	mr, err := cf.PRForWorktree(context.Background(), HostGitLab, t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, mr)
	assert.Equal(t, 7, mr.Number)
	assert.Equal(t, "OPEN", mr.State)
	assert.Equal(t, "feature", mr.Branch)
}

func TestPRForWorktreeUnknownHost(t *testing.T) {
	t.Parallel()
	cf := NewCodeforge()
	pr, err := cf.PRForWorktree(context.Background(), HostUnknown, t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, pr)
}

func TestFetchGitHubCIRollsUpFailure(t *testing.T) {
	writeStubCommand(t, "gh", "GH_OUTPUT")
	t.Setenv("GH_OUTPUT", `[{"bucket":"pass"},{"bucket":"fail"}]`)

	cf := NewCodeforge()
	status, err := cf.CIStatus(context.Background(), HostGitHub, 1, "feature")
	require.NoError(t, err)
	assert.Equal(t, ciFailure, status)
}

func TestFetchGitHubCIAllPassing(t *testing.T) {
	writeStubCommand(t, "gh", "GH_OUTPUT")
	t.Setenv("GH_OUTPUT", `[{"bucket":"pass"},{"bucket":"pass"}]`)

	cf := NewCodeforge()
	status, err := cf.CIStatus(context.Background(), HostGitHub, 1, "feature")
	require.NoError(t, err)
	assert.Equal(t, ciSuccess, status)
}

func TestFetchGitLabCIParsesPipelineShape(t *testing.T) {
	writeStubCommand(t, "glab", "GLAB_OUTPUT")
	t.Setenv("GLAB_OUTPUT", `{"jobs":[{"status":"success"},{"status":"running"}]}`)

	cf := NewCodeforge()
	status, err := cf.CIStatus(context.Background(), HostGitLab, 1, "feature")
	require.NoError(t, err)
	assert.Equal(t, ciPending, status)
}

func TestFetchGitLabCIParsesBareArrayShape(t *testing.T) {
	writeStubCommand(t, "glab", "GLAB_OUTPUT")
	t.Setenv("GLAB_OUTPUT", `[{"status":"failed"}]`)

	cf := NewCodeforge()
	status, err := cf.CIStatus(context.Background(), HostGitLab, 1, "feature")
	require.NoError(t, err)
	assert.Equal(t, ciFailure, status)
}

func TestCIStatusUnknownHost(t *testing.T) {
	t.Parallel()
	cf := NewCodeforge()
	status, err := cf.CIStatus(context.Background(), HostUnknown, 1, "feature")
	require.NoError(t, err)
	assert.Equal(t, "", status)
}

func TestGithubBucketToConclusion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ciSuccess, githubBucketToConclusion("pass"))
	assert.Equal(t, ciFailure, githubBucketToConclusion("fail"))
	assert.Equal(t, ciPending, githubBucketToConclusion("pending"))
	assert.Equal(t, ciSkipped, githubBucketToConclusion("skipping"))
	assert.Equal(t, ciCancelled, githubBucketToConclusion("cancel"))
}

func TestGitlabStatusToConclusion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ciSuccess, gitlabStatusToConclusion("success"))
	assert.Equal(t, ciFailure, gitlabStatusToConclusion("failed"))
	assert.Equal(t, ciPending, gitlabStatusToConclusion("running"))
	assert.Equal(t, ciCancelled, gitlabStatusToConclusion("canceled"))
}
