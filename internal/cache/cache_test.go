package cache

import (
	"testing"
	"time"
)

func TestGetSetDelete(t *testing.T) {
	c := New[string](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Set("k", "v")

	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = %q, %v; want v, true", got, ok)
	}

	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New[int](10 * time.Millisecond)

	c.Set("n", 42)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("n"); ok {
		t.Fatal("expired entry still served")
	}
}

func TestClear(t *testing.T) {
	c := New[string](time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatal("cleared cache still holds entries")
	}
}
