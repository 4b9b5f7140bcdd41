package cache

import (
	"sync"
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int](2, 0)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	// a was touched last, so b is evicted
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v; want 3, true", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Overwrite(t *testing.T) {
	c := NewLRUCache[string](2, 0)
	c.Set("k", "old")
	c.Set("k", "new")

	if v, _ := c.Get("k"); v != "new" {
		t.Errorf("Get(k) = %q, want new", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[int](4, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after expiry", c.Size())
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c := NewLRUCache[int](1, 0)
	c.Get("a")
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Set("b", 2)

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Evictions != 1 || s.Size != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if got := s.HitRatio(); got < 0.66 || got > 0.67 {
		t.Errorf("HitRatio() = %f, want ~0.667", got)
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](16, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := string(rune('a' + (n+j)%20))
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Size() > 16 {
		t.Errorf("Size() = %d exceeds capacity", c.Size())
	}
}
