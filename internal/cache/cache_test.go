package cache

import (
	"fmt"
	"testing"

	"github.com/KaramelBytes/tablechat/internal/ingest"
)

func entryNamed(name string) Entry {
	return Entry{Dataset: &ingest.Dataset{Name: name}}
}

func TestGetPutAndCounters(t *testing.T) {
	c := New(4)

	if _, ok := c.Get("h1"); ok {
		t.Fatalf("unexpected hit on empty cache")
	}
	c.Put("h1", entryNamed("a.csv"))
	got, ok := c.Get("h1")
	if !ok || got.Dataset.Name != "a.csv" {
		t.Fatalf("expected hit for h1, got %v %v", got, ok)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("stats: hits=%d misses=%d", hits, misses)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("h1", entryNamed("a"))
	c.Put("h2", entryNamed("b"))

	// Touch h1 so h2 becomes the eviction candidate.
	if _, ok := c.Get("h1"); !ok {
		t.Fatalf("h1 should be cached")
	}
	c.Put("h3", entryNamed("c"))

	if _, ok := c.Get("h2"); ok {
		t.Fatalf("h2 should have been evicted")
	}
	if _, ok := c.Get("h1"); !ok {
		t.Fatalf("h1 should have survived eviction")
	}
	if _, ok := c.Get("h3"); !ok {
		t.Fatalf("h3 should be cached")
	}
	if c.Len() != 2 {
		t.Fatalf("len: %d", c.Len())
	}
}

func TestPutRefreshesExisting(t *testing.T) {
	c := New(2)
	c.Put("h1", entryNamed("old"))
	c.Put("h2", entryNamed("other"))
	c.Put("h1", entryNamed("new"))

	// h1 was refreshed, so adding a third entry evicts h2.
	c.Put("h3", entryNamed("third"))
	if _, ok := c.Get("h2"); ok {
		t.Fatalf("h2 should have been evicted")
	}
	got, ok := c.Get("h1")
	if !ok || got.Dataset.Name != "new" {
		t.Fatalf("h1 not refreshed: %v %v", got, ok)
	}
}

func TestCapacityFloor(t *testing.T) {
	c := New(0)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("h%d", i), entryNamed("x"))
	}
	if c.Len() != 1 {
		t.Fatalf("expected single-entry floor, len=%d", c.Len())
	}
}
