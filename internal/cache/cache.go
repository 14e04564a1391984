// Package cache stores converted output on disk, keyed by a hash of everything
// that determines the reply.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/maximbilan/esmify/internal/config"
)

const (
	// CacheDirPerm is the permission for the cache directory (0700 = rwx------)
	CacheDirPerm os.FileMode = 0700
	// CacheFilePerm is the permission for cache files (0600 = rw-------)
	// Source code may be proprietary; keep it away from other users
	CacheFilePerm os.FileMode = 0600
)

type Cache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
	now func() time.Time
}

type Entry struct {
	Key       string `json:"key"`
	Source    string `json:"source"`
	Output    string `json:"output"`
	Timestamp int64  `json:"timestamp"`
}

// New creates a cache under ~/.esmify/cache on the OS filesystem
func New(ttlDays int) (*Cache, error) {
	base, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return NewWithFs(afero.NewOsFs(), filepath.Join(base, "cache"), ttlDays)
}

// NewWithFs creates a cache rooted at dir on fs
func NewWithFs(fs afero.Fs, dir string, ttlDays int) (*Cache, error) {
	if ttlDays < 0 {
		return nil, fmt.Errorf("cache TTL days must be non-negative, got %d", ttlDays)
	}
	if err := fs.MkdirAll(dir, CacheDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		fs:  fs,
		dir: filepath.Clean(dir),
		ttl: time.Duration(ttlDays) * 24 * time.Hour,
		now: time.Now,
	}, nil
}

// Key hashes parts into a cache key. Parts are length-prefixed so that
// ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached output for key. Expired entries are removed.
func (c *Cache) Get(key string) (string, bool) {
	path, ok := c.path(key)
	if !ok {
		return "", false
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}

	if c.now().Sub(time.Unix(entry.Timestamp, 0)) > c.ttl {
		_ = c.fs.Remove(path)
		return "", false
	}

	return entry.Output, true
}

func (c *Cache) Set(key, source, output string) error {
	path, ok := c.path(key)
	if !ok {
		return fmt.Errorf("invalid cache key %q", key)
	}

	data, err := json.Marshal(Entry{
		Key:       key,
		Source:    source,
		Output:    output,
		Timestamp: c.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := afero.WriteFile(c.fs, path, data, CacheFilePerm); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// path maps a key to its file, rejecting anything that is not a SHA-256 hex digest
func (c *Cache) path(key string) (string, bool) {
	if !isValidKey(key) {
		return "", false
	}
	return filepath.Join(c.dir, key+".json"), true
}

func isValidKey(key string) bool {
	if len(key) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}
