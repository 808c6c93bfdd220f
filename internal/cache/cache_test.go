package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktrunk/worktrunk/internal/models"
)

func TestMemoryGetSetRoundTrip(t *testing.T) {
	t.Parallel()
	c := New()
	key := Key{Branch: "feature", Commit: "abc123", Kind: "working_tree_status"}
	want := models.WorkingTreeStatus{Modified: 2, Untracked: 1}

	c.Set(key, "abc123", time.Minute, want)

	var got models.WorkingTreeStatus
	ok := c.Get(key, "abc123", &got)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGetMissReturnsFalse(t *testing.T) {
	t.Parallel()
	c := New()
	var got models.WorkingTreeStatus
	ok := c.Get(Key{Branch: "x", Commit: "y", Kind: "z"}, "y", &got)
	assert.False(t, ok)
}

func TestEntryExpiresOnCommitChange(t *testing.T) {
	t.Parallel()
	c := New()
	key := Key{Branch: "feature", Commit: "old-sha", Kind: "main_divergence"}
	c.Set(key, "old-sha", time.Hour, models.AheadBehind{Ahead: 1})

	var got models.AheadBehind
	ok := c.Get(key, "new-sha", &got)
	assert.False(t, ok, "entry should be stale once the branch head commit has moved")
}

func TestEntryExpiresOnTTL(t *testing.T) {
	t.Parallel()
	c := New()
	key := Key{Branch: "feature", Commit: "abc", Kind: "pr_status"}
	c.Set(key, "abc", time.Nanosecond, models.PRInfo{Number: 7})

	time.Sleep(time.Millisecond)

	var got models.PRInfo
	ok := c.Get(key, "abc", &got)
	assert.False(t, ok)
}

func TestInvalidateDropsOnlyMatchingBranch(t *testing.T) {
	t.Parallel()
	c := New()
	c.Set(Key{Branch: "feature", Commit: "a", Kind: "k"}, "a", time.Hour, "feature-value")
	c.Set(Key{Branch: "main", Commit: "b", Kind: "k"}, "b", time.Hour, "main-value")

	c.Invalidate("feature")

	var gotFeature, gotMain string
	assert.False(t, c.Get(Key{Branch: "feature", Commit: "a", Kind: "k"}, "a", &gotFeature))
	assert.True(t, c.Get(Key{Branch: "main", Commit: "b", Kind: "k"}, "b", &gotMain))
	assert.Equal(t, "main-value", gotMain)
}

func TestDiskTierPersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), models.CacheDirName)

	c1 := New()
	c1.SetDiskDir(dir)
	key := Key{Branch: "feature", Commit: "abc123", Kind: "main_diffstat"}
	c1.Set(key, "abc123", time.Hour, models.DiffStat{Added: 10, Deleted: 3})

	c2 := New()
	c2.SetDiskDir(dir)
	var got models.DiffStat
	ok := c2.Get(key, "abc123", &got)
	require.True(t, ok)
	assert.Equal(t, 10, got.Added)
	assert.Equal(t, 3, got.Deleted)
}

func TestDiskTierRejectsStaleCommit(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), models.CacheDirName)

	c1 := New()
	c1.SetDiskDir(dir)
	key := Key{Branch: "feature", Commit: "old", Kind: "main_diffstat"}
	c1.Set(key, "old", time.Hour, models.DiffStat{Added: 1})

	c2 := New()
	c2.SetDiskDir(dir)
	var got models.DiffStat
	ok := c2.Get(key, "new", &got)
	assert.False(t, ok)
}

func TestClearEmptiesMemoryTierOnly(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), models.CacheDirName)
	c := New()
	c.SetDiskDir(dir)
	key := Key{Branch: "feature", Commit: "abc", Kind: "k"}
	c.Set(key, "abc", time.Hour, "value")

	c.Clear()

	var got string
	ok := c.Get(key, "abc", &got)
	require.True(t, ok, "disk tier should still serve the entry after Clear")
	assert.Equal(t, "value", got)
}
