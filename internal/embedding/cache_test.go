package embedding

import "testing"

func TestCache_GetPut(t *testing.T) {
	c := NewCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Put("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Put("b", []float32{4, 5})
	c.Put("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c := NewCache(2)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Get("a")               // a becomes most recent
	c.Put("c", []float32{3}) // evicts b
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain after refresh")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}

func TestCache_DefaultCapacity(t *testing.T) {
	c := NewCache(0)
	if c.capacity != DefaultCacheCapacity {
		t.Errorf("capacity = %d, want %d", c.capacity, DefaultCacheCapacity)
	}
}

func TestContentHash(t *testing.T) {
	if ContentHash("abc") != ContentHash("abc") {
		t.Error("hash must be deterministic")
	}
	if ContentHash("abc") == ContentHash("Abc") {
		t.Error("hash must be case-sensitive")
	}
	if ContentHash("a b") == ContentHash("a  b") {
		t.Error("hash must be whitespace-sensitive")
	}
}
