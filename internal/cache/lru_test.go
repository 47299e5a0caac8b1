package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Fatalf("Get(a) = %v %v, want 2 true", v, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted key should miss")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now the oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clock.Advance(30 * time.Second)
	c.Set("b", 3)
	clock.Advance(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if removed := c.CleanExpired(); removed != 0 {
		t.Errorf("CleanExpired() = %d, want 0 (a was already dropped by Get)", removed)
	}
	clock.Advance(time.Minute)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_GetOrSet(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	calls := 0
	create := func() int { calls++; return calls }

	if v := c.GetOrSet("ip", create); v != 1 {
		t.Fatalf("GetOrSet() = %d, want 1", v)
	}
	clock.Advance(50 * time.Second)
	if v := c.GetOrSet("ip", create); v != 1 {
		t.Fatalf("GetOrSet() = %d, want cached 1", v)
	}
	// the hit above refreshed the expiry
	clock.Advance(50 * time.Second)
	if v := c.GetOrSet("ip", create); v != 1 {
		t.Fatalf("GetOrSet() = %d, want cached 1 after refresh", v)
	}
	clock.Advance(2 * time.Minute)
	if v := c.GetOrSet("ip", create); v != 2 {
		t.Fatalf("GetOrSet() = %d, want new value 2", v)
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](100, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.GetOrSet("shared", func() int { return j })
				c.Set("k", j)
				c.Get("k")
			}
		}()
	}
	wg.Wait()
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestManager_CleanNowAndStop(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(2 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Errorf("CleanNow() = %d, want 2", n)
	}

	m.StartCleanup(context.Background(), 10*time.Millisecond)
	m.StartCleanup(context.Background(), 10*time.Millisecond)
	m.Stop()
	m.Stop()
}
