// Package cache implements the Slot Cache generated-code
// reuse keyed by a hash of slot type + parameters, LRU-bounded, with
// optional TTL and on-disk persistence.
//
// LRU eviction itself is delegated to hashicorp/golang-lru/v2 rather than
// hand-rolled.
package cache

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jeremyhahn/neurlang/internal/core/ports"
)

// Config mirrors the Rust CacheConfig.
type Config struct {
	MaxEntries     int
	MaxMemoryBytes int64         // 0 = unlimited
	TTL            time.Duration // 0 = never expire
	Persist        bool
	PersistPath    string
}

func DefaultConfig() Config {
	return Config{
		MaxEntries:     10000,
		MaxMemoryBytes: 100 * 1024 * 1024,
		PersistPath:    ".slot_cache",
	}
}

type entry struct {
	code        string
	createdAt   time.Time
	accessCount int64
	lastAccess  time.Time
}

func (e *entry) memorySize() int64 {
	return int64(len(e.code)) + 64
}

// Cache is the LRU-bounded, optionally TTL'd and persisted slot code cache.
// Callers pass an already-computed hash (see filler.hashSlot) as the key.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache[uint64, *entry]
	cfg    Config
	memory int64

	lookups   atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

var _ ports.SlotCache = (*Cache)(nil)

func New(cfg Config) (*Cache, error) {
	c := &Cache{cfg: cfg}
	l, err := lru.NewWithEvict[uint64, *entry](cfg.MaxEntries, func(_ uint64, e *entry) {
		c.memory -= e.memorySize()
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	c.lru = l

	if cfg.Persist {
		_ = c.Load(cfg.PersistPath)
	}
	return c, nil
}

// Get looks up key, honoring TTL when configured, and bumps access
// bookkeeping on a hit.
func (c *Cache) Get(key uint64) (ports.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups.Add(1)

	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return ports.CacheEntry{}, false
	}
	if c.cfg.TTL > 0 && time.Since(e.createdAt) > c.cfg.TTL {
		c.misses.Add(1)
		return ports.CacheEntry{}, false
	}

	e.accessCount++
	e.lastAccess = time.Now()
	c.hits.Add(1)

	return ports.CacheEntry{
		Code: e.code, CreatedAt: e.createdAt,
		AccessCount: e.accessCount, LastAccess: e.lastAccess,
	}, true
}

// Put inserts code under key, enforcing the memory budget by evicting the
// LRU's own victim (on size overflow) before insert.
func (c *Cache) Put(key uint64, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{code: code, createdAt: time.Now(), accessCount: 1, lastAccess: time.Now()}
	size := e.memorySize()

	if c.cfg.MaxMemoryBytes > 0 {
		for c.memory+size > c.cfg.MaxMemoryBytes {
			if _, evicted := c.lru.RemoveOldest(); !evicted {
				break
			}
		}
	}

	c.lru.Add(key, e)
	c.memory += size
	return nil
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.memory = 0
}

func (c *Cache) Stats() ports.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ports.CacheStats{
		Lookups: c.lookups.Load(), Hits: c.hits.Load(), Misses: c.misses.Load(),
		Entries: c.lru.Len(), MemoryBytes: c.memory, Evictions: c.evictions.Load(),
	}
}

// Save persists every entry as a "<hash>:<code>" line, with internal
// newlines in code escaped to "\n".
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cfg.Persist {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cache: save: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, key := range c.lru.Keys() {
		e, ok := c.lru.Peek(key)
		if !ok {
			continue
		}
		escaped := strings.ReplaceAll(e.code, "\n", "\\n")
		if _, err := fmt.Fprintf(w, "%d:%s\n", key, escaped); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Load restores entries from a file written by Save, skipping malformed
// lines rather than failing the whole load.
func (c *Cache) Load(path string) error {
	if !c.cfg.Persist {
		return nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache: load: %w", err)
	}
	defer f.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key, err := strconv.ParseUint(line[:idx], 10, 64)
		if err != nil {
			continue
		}
		code := strings.ReplaceAll(line[idx+1:], "\\n", "\n")
		e := &entry{code: code, createdAt: time.Now(), accessCount: 1, lastAccess: time.Now()}
		c.lru.Add(key, e)
		c.memory += e.memorySize()
	}
	return scanner.Err()
}
