package ttlcache

import (
	"testing"
	"time"
)

func TestGetReturnsValueWithinTTL(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("domain:photos.example.com", "johndoe")

	got, ok := c.Get("domain:photos.example.com")
	if !ok || got != "johndoe" {
		t.Fatalf("expected cached value, got %q ok=%v", got, ok)
	}
}

func TestGetMissesAfterExpiry(t *testing.T) {
	c := New[string](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("domain:photos.example.com", "johndoe")

	now = now.Add(time.Minute + time.Second)
	if _, ok := c.Get("domain:photos.example.com"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestGetMissesUnknownKey(t *testing.T) {
	c := New[int](time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestClearDropsAllEntries(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected cleared cache to miss")
	}
}
