package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key-1", []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, ok, err := c.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get: want hit, got miss")
	}
	if string(data) != "payload" {
		t.Errorf("Get data = %q, want %q", data, "payload")
	}
}

func TestFileCacheMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	_, ok, err := c.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get: want miss, got hit")
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "ephemeral", []byte("gone soon"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, ok, err := c.Get(ctx, "ephemeral")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get after expiry: want miss, got hit")
	}
}

func TestFileCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("data"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get after delete: want miss, got hit")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete missing key: %v, want nil", err)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "key", []byte("data"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("NullCache Get: want miss, got hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestKey(t *testing.T) {
	k1 := Key("gen", "model-a", "prompt text")
	k2 := Key("gen", "model-a", "prompt text")
	k3 := Key("gen", "model-b", "prompt text")

	if k1 != k2 {
		t.Errorf("Key not deterministic: %q != %q", k1, k2)
	}
	if k1 == k3 {
		t.Error("Key collision across different parts")
	}
	if len(k1) != len("gen:")+64 {
		t.Errorf("Key length = %d, want prefix plus 64 hex chars", len(k1))
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if len(h) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h))
	}
	if h != Hash([]byte("hello")) {
		t.Error("Hash not deterministic")
	}
	if h == Hash([]byte("world")) {
		t.Error("Hash collision for different inputs")
	}
}
