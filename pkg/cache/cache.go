// Package cache provides an on-disk, size-bounded cache for catalog responses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const entrySuffix = ".json"

// Entry describes one cached response.
type Entry struct {
	Key        string
	LocalPath  string
	Size       int64
	StoredAt   time.Time
	LastAccess time.Time
}

// Cache keeps gateway responses on disk for a limited time.
type Cache struct {
	dir     string
	maxSize int64 // Maximum cache size in bytes (0 = unbounded)
	ttl     time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
	size    int64
}

// New creates a cache rooted at dir. Responses already on disk are indexed
// by file name, so a cache survives restarts until its entries expire.
func New(dir string, maxSize int64, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{
		dir:     dir,
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
	if err := c.scan(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) scan() error {
	des, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, de := range des {
		if de.IsDir() || !strings.HasSuffix(de.Name(), entrySuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(de.Name(), entrySuffix)
		c.entries[name] = &Entry{
			Key:        name,
			LocalPath:  filepath.Join(c.dir, de.Name()),
			Size:       info.Size(),
			StoredAt:   info.ModTime(),
			LastAccess: info.ModTime(),
		}
		c.size += info.Size()
	}
	return nil
}

// fileName maps an arbitrary key (usually a request path with query) to a
// stable file name.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached body for key if it is present and fresh.
func (c *Cache) Get(key string) ([]byte, bool) {
	id := fileName(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.expired(entry) {
		c.remove(id, entry)
		return nil, false
	}

	data, err := os.ReadFile(entry.LocalPath)
	if err != nil {
		c.remove(id, entry)
		return nil, false
	}
	entry.LastAccess = c.now()
	return data, true
}

// Put stores a response body under key.
// Content is written atomically (temp file then rename).
func (c *Cache) Put(key string, data []byte) error {
	id := fileName(key)
	size := int64(len(data))

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[id]; ok {
		c.size -= old.Size
		delete(c.entries, id)
	}

	// Evict if needed
	for c.maxSize > 0 && c.size+size > c.maxSize {
		if !c.evictOldest() {
			break // Nothing to evict
		}
	}

	localPath := filepath.Join(c.dir, id+entrySuffix)
	tempPath := localPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tempPath, localPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	now := c.now()
	c.entries[id] = &Entry{
		Key:        key,
		LocalPath:  localPath,
		Size:       size,
		StoredAt:   now,
		LastAccess: now,
	}
	c.size += size
	return nil
}

// Evict removes key from the cache.
func (c *Cache) Evict(key string) {
	id := fileName(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[id]; ok {
		c.remove(id, entry)
	}
}

// Clear removes every entry and returns how many were dropped.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for id, entry := range c.entries {
		c.remove(id, entry)
		count++
	}
	return count
}

// Stats returns cache statistics.
func (c *Cache) Stats() (size, maxSize int64, count int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size, c.maxSize, len(c.entries)
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) expired(e *Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.StoredAt) > c.ttl
}

// remove drops an entry. Must be called with lock held.
func (c *Cache) remove(id string, e *Entry) {
	os.Remove(e.LocalPath)
	c.size -= e.Size
	delete(c.entries, id)
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache) evictOldest() bool {
	var oldest *Entry
	var oldestID string

	for id, entry := range c.entries {
		if oldest == nil || entry.LastAccess.Before(oldest.LastAccess) {
			oldest = entry
			oldestID = id
		}
	}

	if oldest == nil {
		return false
	}
	c.remove(oldestID, oldest)
	return true
}
