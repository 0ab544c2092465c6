package cache

import "testing"

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1, 1)

	if v, ok := c.Get("a", 2); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}
	if _, ok := c.Get("b", 2); ok {
		t.Error("Get(b) found a missing key")
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.HitRate != 0.5 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCacheEvictsLeastRecentFrame(t *testing.T) {
	c := New[string, int](2)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Set("a", 1, 1)
	c.Set("b", 2, 2)
	c.Get("a", 3) // a is now newer than b
	c.Set("c", 3, 4)

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
	if _, ok := c.Peek("a"); !ok {
		t.Error("a was evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheNeverEvictsNewEntry(t *testing.T) {
	c := New[string, int](1)
	c.Set("old", 1, 10)
	c.Set("new", 2, 1) // older frame stamp than the existing entry
	if _, ok := c.Peek("new"); !ok {
		t.Error("entry just stored was evicted")
	}
	if _, ok := c.Peek("old"); ok {
		t.Error("old entry survived")
	}
}

func TestCacheEvictBefore(t *testing.T) {
	c := New[int, int](0)
	released := 0
	c.OnEvict(func(int, int) { released++ })
	for i := 0; i < 5; i++ {
		c.Set(i, i, uint64(i))
	}

	if n := c.EvictBefore(3); n != 3 {
		t.Errorf("EvictBefore(3) = %d, want 3", n)
	}
	if released != 3 {
		t.Errorf("released = %d, want 3", released)
	}
	if c.Stats().Evictions != 3 {
		t.Errorf("Evictions = %d, want 3", c.Stats().Evictions)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[int, int](0)
	released := 0
	c.OnEvict(func(int, int) { released++ })
	c.Set(1, 1, 1)
	c.Set(2, 2, 1)

	if !c.Delete(1) {
		t.Error("Delete(1) = false, want true")
	}
	if c.Delete(1) {
		t.Error("second Delete(1) = true, want false")
	}
	c.Clear()
	if released != 2 || c.Len() != 0 {
		t.Errorf("released = %d, Len() = %d, want 2, 0", released, c.Len())
	}
}

func TestCacheRemoveOldest(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1, 5)
	c.Set("b", 2, 1)
	c.Set("c", 3, 3)

	k, v, ok := c.RemoveOldest("b")
	if !ok || k != "c" || v != 3 {
		t.Errorf("RemoveOldest(b) = %v, %v, %v, want c, 3, true", k, v, ok)
	}
	c.Delete("a")
	if _, _, ok := c.RemoveOldest("b"); ok {
		t.Error("RemoveOldest() removed the kept key")
	}
}
