package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get(missing) = ok, want miss")
	}

	c.Set(ctx, "a", 42, time.Minute)
	v, ok := c.Get(ctx, "a")
	if !ok || v != 42 {
		t.Errorf("Get(a) = (%d, %v), want (42, true)", v, ok)
	}

	c.Set(ctx, "a", 7, time.Minute)
	v, _ = c.Get(ctx, "a")
	if v != 7 {
		t.Errorf("Get(a) after overwrite = %d, want 7", v)
	}

	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("Get(a) after delete = ok, want miss")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, string](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", "v", 10*time.Millisecond)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("entry expired immediately")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("entry readable past its ttl")
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := New[int, int](time.Minute)
	c.Close()
	c.Close()
}
