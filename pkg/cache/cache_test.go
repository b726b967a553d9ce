package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected expired key to read as absent")
	}
}

func TestOverwrite(t *testing.T) {
	c := New()
	c.Set("key1", "old", time.Second)
	c.Set("key1", "new", time.Second)
	val, _ := c.Get("key1")
	if val != "new" {
		t.Fatalf("expected new, got %v", val)
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", time.Second)
	c.Delete("key1")
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected deleted key to read as absent")
	}
}

func TestLenSkipsExpired(t *testing.T) {
	c := New()
	c.Set("live", "v", time.Second)
	c.Set("dead", "v", -time.Second)
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 live entry, got %d", got)
	}
}
