// Package cache is the two-tier Fact Cache (spec §4.B): a process-local
// in-memory tier backed by an on-disk tier under the repository's git common
// directory, keyed by (branch, commit, fact kind). Entries are invalidated
// by TTL or by the branch's head commit moving.
package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/worktrunk/worktrunk/internal/models"
)

func init() {
	gob.Register(models.WorkingTreeStatus{})
	gob.Register(models.AheadBehind{})
	gob.Register(models.DiffStat{})
	gob.Register(models.PRInfo{})
	gob.Register(false)
	gob.Register("")
}

// FactKind names one member of the closed set of facts a collector can
// produce (spec §3's fact record kind).
type FactKind string

const (
	FactWorkingTreeStatus  FactKind = "working_tree_status"
	FactMainDivergence     FactKind = "main_divergence"
	FactUpstreamDivergence FactKind = "upstream_divergence"
	FactMainDiffstat       FactKind = "main_diffstat"
	FactConflictsWithMain  FactKind = "conflicts_with_main"
	FactPRStatus           FactKind = "pr_status"
	FactCIStatus           FactKind = "ci_status"
	FactURL                FactKind = "url"
	FactURLLive            FactKind = "url_live"
	FactStatusMarker       FactKind = "status_marker"
	FactIntegrationTarget  FactKind = "integration_target"
	FactPreviousBranch     FactKind = "previous_branch"
)

// FactValue is the payload of a cached fact. Collectors return one of the
// concrete types assign (below) knows how to round-trip.
type FactValue = any

// Key identifies one cached fact value.
type Key struct {
	Branch string
	Commit string
	Kind   FactKind
}

func (k Key) diskName() string {
	return string(k.Kind) + "@" + k.Commit + "@" + sanitizeBranch(k.Branch) + ".gob"
}

func sanitizeBranch(branch string) string {
	buf := make([]byte, 0, len(branch))
	for _, r := range branch {
		if r == '/' || r == ' ' {
			buf = append(buf, '_')
			continue
		}
		buf = append(buf, string(r)...)
	}
	return string(buf)
}

type entry struct {
	value    any
	commit   string
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) fresh(headCommit string) bool {
	if e.commit != "" && headCommit != "" && e.commit != headCommit {
		return false
	}
	if e.ttl <= 0 {
		return true
	}
	return time.Since(e.storedAt) < e.ttl
}

// Cache is the two-tier fact cache. Construct it with New; the zero value
// has a nil memory map and is not usable. Call SetDiskDir to enable
// persistence.
type Cache struct {
	mu      sync.RWMutex
	mem     map[Key]*entry
	diskDir string
}

// New constructs an empty Cache with no on-disk tier.
func New() *Cache {
	return &Cache{mem: make(map[Key]*entry)}
}

// SetDiskDir enables the on-disk tier, rooted at dir (typically
// "<git-common-dir>/wt-cache", see models.CacheDirName).
func (c *Cache) SetDiskDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diskDir = dir
}

// Get returns the cached value for key if present and not stale relative to
// headCommit. The in-memory tier is checked first; a miss falls through to
// the on-disk tier and, if found there, repopulates memory.
func (c *Cache) Get(key Key, headCommit string, dst any) bool {
	c.mu.RLock()
	e, ok := c.mem[key]
	dir := c.diskDir
	c.mu.RUnlock()

	if ok {
		if !e.fresh(headCommit) {
			return false
		}
		return assign(dst, e.value)
	}

	if dir == "" {
		return false
	}
	diskEntry, ok := c.readDisk(dir, key)
	if !ok || !diskEntry.fresh(headCommit) {
		return false
	}

	c.mu.Lock()
	c.mem[key] = diskEntry
	c.mu.Unlock()
	return assign(dst, diskEntry.value)
}

// Set stores value for key, valid for ttl and tied to headCommit (empty
// means "always valid regardless of commit", used for facts with no commit
// affinity). It also persists to the on-disk tier when one is configured.
func (c *Cache) Set(key Key, headCommit string, ttl time.Duration, value any) {
	e := &entry{value: value, commit: headCommit, storedAt: time.Now(), ttl: ttl}

	c.mu.Lock()
	c.mem[key] = e
	dir := c.diskDir
	c.mu.Unlock()

	if dir != "" {
		_ = c.writeDisk(dir, key, e)
	}
}

// Invalidate drops every cached entry for branch, in both tiers.
func (c *Cache) Invalidate(branch string) {
	c.mu.Lock()
	for k := range c.mem {
		if k.Branch == branch {
			delete(c.mem, k)
		}
	}
	dir := c.diskDir
	c.mu.Unlock()

	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	suffix := "@" + sanitizeBranch(branch) + ".gob"
	for _, de := range entries {
		if !de.IsDir() && hasSuffix(de.Name(), suffix) {
			_ = os.Remove(filepath.Join(dir, de.Name()))
		}
	}
}

// Clear empties the in-memory tier. The on-disk tier is left untouched;
// stale entries there are rejected by freshness checks on next read.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem = make(map[Key]*entry)
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func assign(dst, value any) bool {
	switch d := dst.(type) {
	case *models.WorkingTreeStatus:
		v, ok := value.(models.WorkingTreeStatus)
		if ok {
			*d = v
		}
		return ok
	case *models.AheadBehind:
		v, ok := value.(models.AheadBehind)
		if ok {
			*d = v
		}
		return ok
	case *models.DiffStat:
		v, ok := value.(models.DiffStat)
		if ok {
			*d = v
		}
		return ok
	case *models.PRInfo:
		v, ok := value.(models.PRInfo)
		if ok {
			*d = v
		}
		return ok
	case *bool:
		v, ok := value.(bool)
		if ok {
			*d = v
		}
		return ok
	case *string:
		v, ok := value.(string)
		if ok {
			*d = v
		}
		return ok
	default:
		return false
	}
}

// diskHeader is the small fixed record written ahead of the gob-encoded
// value, letting readDisk validate and expire entries without decoding the
// payload first.
type diskHeader struct {
	Commit   string
	StoredAt int64
	TTLNanos int64
}

func (c *Cache) readDisk(dir string, key Key) (*entry, bool) {
	path := filepath.Join(dir, key.diskName())
	// #nosec G304 -- path is built from a sanitized cache key, never raw user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	dec := gob.NewDecoder(bytes.NewReader(data))
	var hdr diskHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, false
	}
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}

	return &entry{
		value:    value,
		commit:   hdr.Commit,
		storedAt: time.Unix(0, hdr.StoredAt),
		ttl:      time.Duration(hdr.TTLNanos),
	}, true
}

func (c *Cache) writeDisk(dir string, key Key, e *entry) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	hdr := diskHeader{Commit: e.commit, StoredAt: e.storedAt.UnixNano(), TTLNanos: int64(e.ttl)}
	if err := enc.Encode(hdr); err != nil {
		return err
	}
	if err := enc.Encode(&e.value); err != nil {
		// Values gob cannot encode (interfaces, funcs) simply skip persistence;
		// they remain cached in memory for this process's lifetime.
		return errors.New("cache: value not gob-encodable")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+string(key.Kind)+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, filepath.Join(dir, key.diskName()))
}
