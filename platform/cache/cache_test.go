package cache

import (
	"testing"
	"time"
)

type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time {
	return f.current
}

func (f *fakeClock) advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func TestTTLGetSet(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTL[int](5*time.Minute, clock.now)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", 42)
	got, ok := c.Get("a")
	if !ok || got != 42 {
		t.Fatalf("Get(a) = %d, %v; want 42, true", got, ok)
	}
}

func TestTTLExpiry(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTL[string](5*time.Minute, clock.now)

	c.Set("k", "v")

	clock.advance(4 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired too early")
	}

	clock.advance(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestTTLForgetAndClear(t *testing.T) {
	clock := &fakeClock{current: time.Now()}
	c := NewTTL[int](time.Hour, clock.now)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Forget("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Forget did not remove entry")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("Forget removed the wrong entry")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("Clear did not drop all entries")
	}
}

func TestTTLDisabled(t *testing.T) {
	c := NewTTL[int](0, nil)

	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatal("zero TTL cache must never hit")
	}
}
