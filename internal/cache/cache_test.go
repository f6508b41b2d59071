package cache

import (
	"strings"
	"sync"
	"testing"

	"github.com/dshills/verdict/internal/finding"
)

func TestCache_PutGet(t *testing.T) {
	c := New(true)
	key := Key("py.sqli", "cursor.execute(q)", 12)

	// Miss before put
	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss before put")
	}

	v := &finding.Verdict{IsFalsePositive: true, Confidence: 0.9}
	c.Put(key, v)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got != v {
		t.Error("Cache should return the stored verdict by reference")
	}

	stats := c.Stats()
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 entry, 1 hit, 1 miss", stats)
	}
}

func TestCache_Disabled(t *testing.T) {
	c := New(false)
	if c.Enabled() {
		t.Error("Cache should be disabled")
	}
	c.Put("key", &finding.Verdict{})
	if _, ok := c.Get("key"); ok {
		t.Error("Get on disabled cache should always miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_PeekLeavesStats(t *testing.T) {
	c := New(true)
	if _, ok := c.Peek("key"); ok {
		t.Error("Expected miss on empty cache")
	}
	v := &finding.Verdict{Confidence: 0.4}
	c.Put("key", v)
	if got, ok := c.Peek("key"); !ok || got != v {
		t.Errorf("Peek = %v, %v; want stored verdict", got, ok)
	}
	if stats := c.Stats(); stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Stats = %+v, Peek should not count lookups", stats)
	}
}

func TestCache_PutNilIgnored(t *testing.T) {
	c := New(true)
	c.Put("key", nil)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	h2 := HashKey("test")
	h3 := HashKey("other")

	if h1 != h2 {
		t.Error("Same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("Different input should produce different hash")
	}
	if len(h1) != 64 { // SHA-256 hex = 64 chars
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestKey(t *testing.T) {
	k1 := Key("rule", "eval(x)", 3)
	if !strings.HasPrefix(k1, "rule:") {
		t.Errorf("Key should be prefixed with the rule id: %s", k1)
	}
	if k1 != Key("rule", "eval(x)", 3) {
		t.Error("Same inputs should produce same key")
	}
	if k1 == Key("rule", "eval(x)", 4) {
		t.Error("Different line should produce different key")
	}
	if k1 == Key("rule", "exec(x)", 3) {
		t.Error("Different snippet should produce different key")
	}
	if k1 == Key("other", "eval(x)", 3) {
		t.Error("Different rule should produce different key")
	}
}

func TestKeyFor_IgnoresFilePath(t *testing.T) {
	a := &finding.Finding{RuleID: "r", Location: finding.Location{FilePath: "a.py", StartLine: 7, Snippet: "os.system(cmd)"}}
	b := &finding.Finding{RuleID: "r", Location: finding.Location{FilePath: "b/c.py", StartLine: 7, Snippet: "os.system(cmd)"}}
	if KeyFor(a) != KeyFor(b) {
		t.Error("findings differing only by file path should share a cache key")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New(true)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("r", "s", i%5)
			c.Put(key, &finding.Verdict{Confidence: 1})
			c.Get(key)
		}(i)
	}
	wg.Wait()
	if c.Len() != 5 {
		t.Errorf("Len = %d, want 5", c.Len())
	}
	if c.Stats().Hits != 50 {
		t.Errorf("Hits = %d, want 50", c.Stats().Hits)
	}
}
