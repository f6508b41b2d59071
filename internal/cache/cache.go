package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/dshills/verdict/internal/finding"
)

// Cache is an in-memory verdict store scoped to one engine instance.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*finding.Verdict
	enabled bool
	hits    int
	misses  int
}

// Stats summarises cache activity.
type Stats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// New creates a Cache. A disabled cache always misses and ignores Put.
func New(enabled bool) *Cache {
	return &Cache{
		entries: make(map[string]*finding.Verdict),
		enabled: enabled,
	}
}

// Get returns the cached verdict for key.
func (c *Cache) Get(key string) (*finding.Verdict, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Peek is Get without touching the hit and miss counters.
func (c *Cache) Peek(key string) (*finding.Verdict, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a verdict. Callers must only store verdicts from successful
// analyses so that transient failures are retried on the next run.
func (c *Cache) Put(key string, v *finding.Verdict) {
	if !c.enabled || v == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// Len returns the number of cached verdicts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// Key builds the cache key for a finding's rule, snippet and start line.
// The file path is not part of the key: the same pattern on the same line in
// two files is analyzed once.
func Key(ruleID, snippet string, line int) string {
	return ruleID + ":" + HashKey(fmt.Sprintf("%s:%s:%d", ruleID, snippet, line))
}

// KeyFor is Key applied to a finding.
func KeyFor(f *finding.Finding) string {
	return Key(f.RuleID, f.Location.Snippet, f.Location.StartLine)
}
