package infra

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(10)
	defer c.Close()

	c.Set("page_info:Foo", "value", time.Minute)

	got, ok := c.Get("page_info:Foo")
	if !ok {
		t.Fatal("Get should find a fresh entry")
	}
	if got != "value" {
		t.Errorf("Get = %v, want value", got)
	}

	if _, ok := c.Get("page_info:Bar"); ok {
		t.Error("Get should miss an absent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10)
	defer c.Close()

	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should not be returned")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0 after lazy expiry", c.Size())
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache(10)
	defer c.Close()

	c.Set("k", "old", time.Minute)
	c.Set("k", "new", time.Minute)

	if got, _ := c.Get("k"); got != "new" {
		t.Errorf("Get = %v, want new", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestCacheDelete(t *testing.T) {
	c := NewCache(10)
	defer c.Close()

	c.Set("k", "v", time.Minute)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Error("deleted entry should not be returned")
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	c := NewCache(20)
	defer c.Close()

	c.Set("page_text:Report", "a", time.Minute)
	c.Set("page_info:Report", "b", time.Minute)
	c.Set("page_text:Other", "c", time.Minute)

	c.DeletePrefix("page_text:Report")

	if _, ok := c.Get("page_text:Report"); ok {
		t.Error("prefixed entry should be gone")
	}
	if _, ok := c.Get("page_info:Report"); !ok {
		t.Error("entry under another prefix should survive")
	}
	if _, ok := c.Get("page_text:Other"); !ok {
		t.Error("entry with a different suffix should survive")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(20)
	defer c.Close()

	var evicted int
	c.OnEvict(func(n int) { evicted += n })

	c.Set("oldest", "v", time.Minute)
	time.Sleep(5 * time.Millisecond)
	for i := 0; i < 19; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v", time.Minute)
	}
	time.Sleep(5 * time.Millisecond)

	// Touch the oldest entry so a younger one becomes the LRU victim.
	if _, ok := c.Get("oldest"); !ok {
		t.Fatal("oldest should still be cached")
	}

	c.Set("overflow", "v", time.Minute)

	if c.Size() > 20 {
		t.Errorf("Size = %d, want at most the limit", c.Size())
	}
	if evicted == 0 {
		t.Error("eviction callback should have fired")
	}
	if _, ok := c.Get("oldest"); !ok {
		t.Error("recently touched entry should survive eviction")
	}
}

func TestCacheZeroLimitUsesDefault(t *testing.T) {
	c := NewCache(0)
	defer c.Close()

	if c.maxEntries != DefaultMaxCacheEntries {
		t.Errorf("maxEntries = %d, want %d", c.maxEntries, DefaultMaxCacheEntries)
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := NewCache(10)
	c.Close()
	c.Close()
}
