// Package cache keeps rendered public pages on disk, keyed by request path.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"pressroom/logger"
)

type Cache struct {
	dir    string
	maxAge time.Duration
}

// New returns a cache rooted at dir. A zero maxAge disables it.
func New(dir string, maxAge time.Duration) *Cache {
	return &Cache{dir: dir, maxAge: maxAge}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.maxAge > 0
}

// Path returns the cache file for a request path.
func (c *Cache) Path(key string) string {
	hash := generateHash(key)
	name := strings.Trim(strings.ReplaceAll(key, "/", "_"), "_")
	if len(name) > 64 {
		name = name[:64]
	}
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.html", name, hash[:16]))
}

func generateHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func (c *Cache) Write(key string, html []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.Path(key), html, 0o644)
}

// Read returns the cached page if present and younger than maxAge.
func (c *Cache) Read(key string) ([]byte, bool) {
	p := c.Path(key)
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return content, true
}

// Clear drops every cached page. Any content save can change menus or
// listings shown on every page, so invalidation is not per key.
func (c *Cache) Clear() {
	if !c.Enabled() {
		return
	}
	if err := os.RemoveAll(c.dir); err != nil {
		logger.Log.Warn("clear page cache", zap.String("dir", c.dir), zap.Error(err))
	}
}

// ClearOld removes cache files older than maxAge. It is a no-op when the
// cache is disabled.
func (c *Cache) ClearOld() error {
	if !c.Enabled() {
		return nil
	}
	return filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		if time.Since(info.ModTime()) > c.maxAge {
			os.Remove(path)
		}
		return nil
	})
}
