package render

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/nemorize/restdown/internal/checksum"
	"github.com/nemorize/restdown/internal/storage"
)

// Cache stores rendered HTML on disk, one file per source document named by
// the hash of its path.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir. The directory is created lazily.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Path returns the cache file for a source document.
func (c *Cache) Path(source string) string {
	return filepath.Join(c.dir, checksum.Key(source)+".html")
}

// Get returns the cached HTML for source if the entry is not older than
// sourceMod.
func (c *Cache) Get(source string, sourceMod time.Time) (string, bool) {
	p := c.Path(source)
	info, err := os.Stat(p)
	if err != nil || info.ModTime().Before(sourceMod) {
		return "", false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put writes the entry for source. Concurrent writers to the same entry
// resolve last-writer-wins.
func (c *Cache) Put(source, html string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("render cache: create dir: %w", err)
	}
	if err := atomic.WriteFile(c.Path(source), strings.NewReader(html)); err != nil {
		return fmt.Errorf("render cache: write: %w", err)
	}
	return nil
}

// Wipe removes every entry.
func (c *Cache) Wipe() error {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("render cache: wipe: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("render cache: wipe: %w", err)
		}
	}
	return nil
}

// Cached serves renders from the cache, re-rendering stale or missing
// entries.
type Cached struct {
	next   HTMLRenderer
	corpus storage.Provider
	cache  *Cache
	logger *slog.Logger
}

var _ HTMLRenderer = (*Cached)(nil)

// NewCached wraps next with cache.
func NewCached(next HTMLRenderer, corpus storage.Provider, cache *Cache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, corpus: corpus, cache: cache, logger: logger}
}

// Render returns the cached HTML for path when fresh; otherwise it renders
// and stores the result. A failed cache write is logged, not returned.
func (c *Cached) Render(path string) (string, error) {
	mod, err := c.corpus.ModTime(path)
	if err != nil {
		return "", err
	}
	if out, ok := c.cache.Get(path, mod); ok {
		return out, nil
	}
	out, err := c.next.Render(path)
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(path, out); err != nil {
		c.logger.Warn("render cache: store failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	return out, nil
}

// Invalidate drops every cached render.
func (c *Cached) Invalidate() error {
	return c.cache.Wipe()
}
