package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) = true, want false")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[string, int](10, time.Nanosecond)

	c.Set("a", 1)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLRUInvalidate(t *testing.T) {
	c := NewLRU[string, int](10, time.Minute)

	c.Set("a", 1)
	c.Invalidate("a")
	c.Invalidate("missing") // no-op

	if _, ok := c.Get("a"); ok {
		t.Error("expected invalidated entry to miss")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRU[string, int](10, time.Nanosecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(time.Millisecond)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestJanitor(t *testing.T) {
	c := NewLRU[string, int](10, time.Nanosecond)
	c.Set("a", 1)

	j := NewJanitor()
	j.Register(c)
	j.Start(time.Millisecond)

	deadline := time.After(time.Second)
	for c.Size() > 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not sweep expired entries in time")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	j.Stop()
	j.Stop() // idempotent
}
