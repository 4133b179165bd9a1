// Package cache stores per-file rule results on disk, keyed by a content hash.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Cache is a directory of JSON entries. A disabled cache misses on every read
// and drops every write.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// Entry is one cached payload.
type Entry struct {
	Hash      string    `json:"hash,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a cache rooted at dir. Entries older than ttlHours are treated
// as misses; a ttl of zero or less never expires.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{now: time.Now}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
		now:     time.Now,
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashBytes returns the hex BLAKE3 digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetWithHash returns the payload stored under key only if it was stored for hash.
func (c *Cache) GetWithHash(key, hash string) ([]byte, bool) {
	entry, ok := c.load(key)
	if !ok || entry.Hash != hash {
		return nil, false
	}
	return entry.Data, true
}

// SetWithHash stores data under key, tagged with the hash it was computed from.
func (c *Cache) SetWithHash(key, hash string, data []byte) error {
	return c.store(key, hash, data)
}

// Clear removes every entry and the cache directory.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// Stats summarizes the cache directory.
type Stats struct {
	Dir       string        `json:"dir" yaml:"dir"`
	Entries   int           `json:"entries" yaml:"entries"`
	TotalSize int64         `json:"total_size" yaml:"total_size"`
	OldestAge time.Duration `json:"oldest_age" yaml:"oldest_age"`
	NewestAge time.Duration `json:"newest_age" yaml:"newest_age"`
}

// GetStats walks the cache directory.
func (c *Cache) GetStats() (*Stats, error) {
	stats := &Stats{Dir: c.dir}
	if !c.Enabled() {
		return stats, nil
	}
	if _, err := os.Stat(c.dir); errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}

	var oldest, newest time.Time
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		mod := info.ModTime()
		if oldest.IsZero() || mod.Before(oldest) {
			oldest = mod
		}
		if newest.IsZero() || mod.After(newest) {
			newest = mod
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	if !oldest.IsZero() {
		stats.OldestAge = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = now.Sub(newest)
	}
	return stats, nil
}

func (c *Cache) load(key string) (Entry, bool) {
	if !c.Enabled() {
		return Entry{}, false
	}
	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.Timestamp) > c.ttl {
		_ = os.Remove(path)
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) store(key, hash string, data []byte) error {
	if !c.Enabled() {
		return nil
	}
	encoded, err := json.Marshal(Entry{Hash: hash, Timestamp: c.now(), Data: data})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), encoded, 0o600)
}

// keyPath hashes the key so arbitrary keys map to safe file names.
func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, HashBytes([]byte(key))+".json")
}
