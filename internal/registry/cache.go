package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CacheFileName is the file the version cache persists to.
const CacheFileName = "index_cache.json"

// Release is one published version as reported by the index.
type Release struct {
	Num    string `json:"num"`
	Yanked bool   `json:"yanked,omitempty"`
}

type cacheEntry struct {
	Registry  string    `json:"registry"`
	Crate     string    `json:"crate"`
	Releases  []Release `json:"releases"`
	FetchedAt time.Time `json:"fetched_at"`
}

type cacheFile struct {
	Entries map[string]cacheEntry `json:"entries"`
}

// Cache keeps recently fetched release lists on disk so repeated runs within
// the TTL avoid hitting the index. Entries are scoped to the registry they
// came from and hold yanked releases too.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	mu sync.Mutex
}

// NewCache returns a cache stored in dir. A ttl of zero or less disables it
// and NewCache returns nil.
func NewCache(dir string, ttl time.Duration) *Cache {
	if ttl <= 0 || dir == "" {
		return nil
	}
	return &Cache{
		path: filepath.Join(dir, CacheFileName),
		ttl:  ttl,
		now:  time.Now,
	}
}

func cacheKey(registry, crate string) string {
	return registry + "#" + crate
}

// Lookup returns the cached releases of a crate on registry if they have not
// expired.
func (c *Cache) Lookup(registry, crate string) ([]Release, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.load().Entries[cacheKey(registry, crate)]
	if !ok || entry.Registry != registry || entry.Crate != crate {
		return nil, false
	}
	if c.now().Sub(entry.FetchedAt) > c.ttl {
		return nil, false
	}
	return entry.Releases, true
}

// Store records the releases of a crate on registry.
func (c *Cache) Store(registry, crate string, releases []Release) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cf := c.load()
	cf.Entries[cacheKey(registry, crate)] = cacheEntry{
		Registry:  registry,
		Crate:     crate,
		Releases:  releases,
		FetchedAt: c.now(),
	}
	return c.save(cf)
}

// load reads the cache file; a missing or unreadable file is an empty cache.
func (c *Cache) load() cacheFile {
	empty := cacheFile{Entries: map[string]cacheEntry{}}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return empty
	}
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return empty
	}
	if cf.Entries == nil {
		cf.Entries = map[string]cacheEntry{}
	}
	return cf
}

func (c *Cache) save(cf cacheFile) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare cache directory: %w", err)
	}

	buf, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "index_cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}
