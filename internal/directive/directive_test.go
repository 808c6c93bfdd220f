package directive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInactiveSinkIsNoop(t *testing.T) {
	t.Parallel()
	s := NewAt("")
	assert.False(t, s.Active())
	assert.NoError(t, s.ChangeDirectory("/tmp/repo.feature"))
	assert.NoError(t, s.Exec("nvim ."))
}

func TestChangeDirectoryWritesQuotedCdLine(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "directives")
	s := NewAt(path)
	require.True(t, s.Active())

	require.NoError(t, s.ChangeDirectory("/tmp/repo.feature"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cd '/tmp/repo.feature'\n", string(data))
}

func TestChangeDirectoryQuotesEmbeddedSingleQuotes(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "directives")
	s := NewAt(path)

	require.NoError(t, s.ChangeDirectory("/tmp/o'brien"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cd '/tmp/o'\"'\"'brien'\n", string(data))
}

func TestExecWritesVerbatimCommandLine(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "directives")
	s := NewAt(path)

	require.NoError(t, s.Exec("nvim -c 'set ft=go'"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "exec nvim -c 'set ft=go'\n", string(data))
}

func TestDirectivesAppendInOrder(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "directives")
	s := NewAt(path)

	require.NoError(t, s.ChangeDirectory("/a"))
	require.NoError(t, s.Exec("echo hi"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cd '/a'\nexec echo hi\n", string(data))
}

func TestNewResolvesFromEnvVar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directives")
	t.Setenv(FileEnvVar, path)

	s := New()
	assert.True(t, s.Active())
}

func TestNewInactiveWhenEnvVarUnset(t *testing.T) {
	t.Setenv(FileEnvVar, "")
	s := New()
	assert.False(t, s.Active())
}

func TestScrubEnvRemovesDirectiveVariable(t *testing.T) {
	t.Parallel()
	env := []string{"PATH=/usr/bin", FileEnvVar + "=/tmp/x", "HOME=/root"}
	scrubbed := ScrubEnv(env)
	for _, kv := range scrubbed {
		assert.NotContains(t, kv, FileEnvVar+"=")
	}
	assert.Len(t, scrubbed, 2)
}
