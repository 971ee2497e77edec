// Package cache stores materialized artifacts on disk, keyed by a digest of
// the module they were produced from.
package cache

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"irkit/internal/observ"
)

// Current schema version; increment when Entry changes.
const schemaVersion uint16 = 1

// DiskCache keeps one msgpack file per Key. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Entry is a cached artifact with the metadata of the run that made it.
type Entry struct {
	Schema uint16

	ID        string // uuid of the entry
	RunID     string // pipeline run that produced it
	Module    string
	Kind      string // Artifact.Kind()
	Data      []byte // Artifact.Bytes()
	Timings   observ.Report
	CreatedAt time.Time
}

// Artifact exposes the cached bytes as a materialize.Artifact.
func (e *Entry) Artifact() Artifact { return Artifact{kind: e.Kind, data: e.Data} }

// Artifact replays a cached backend result.
type Artifact struct {
	kind string
	data []byte
}

func (a Artifact) Kind() string { return a.kind }

func (a Artifact) Bytes() []byte { return append([]byte(nil), a.data...) }

// Open uses dir as the cache root, creating it if needed.
func Open(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "open cache")
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDefault opens $XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>.
func OpenDefault(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "locate cache directory")
		}
		base = filepath.Join(home, ".cache")
	}
	return Open(filepath.Join(base, app))
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, "artifacts", key.String()+".mp")
}

// Put writes e under key, replacing any previous entry atomically. Schema,
// ID and CreatedAt are filled in when empty.
func (c *DiskCache) Put(key Key, e *Entry) error {
	if c == nil {
		return nil
	}
	e.Schema = schemaVersion
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "cache put")
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return errors.Wrap(err, "cache put")
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck

	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "encode cache entry %s", key)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "cache put")
	}
	return errors.Wrap(os.Rename(tmp, p), "cache put")
}

// Get loads the entry for key. A missing entry or one written with another
// schema reports false without an error.
func (c *DiskCache) Get(key Key, out *Entry) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errors.Wrap(err, "cache get")
	}
	defer f.Close() //nolint:errcheck

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return false, errors.Wrapf(err, "decode cache entry %s", key)
	}
	if e.Schema != schemaVersion {
		return false, nil
	}
	*out = e
	return true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Wrap(err, "drop cache")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "drop cache")
	}
	return errors.Wrap(os.RemoveAll(old), "drop cache")
}
