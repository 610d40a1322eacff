package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("threat", "example.com")
	b := CacheKey("threat", "example.com")
	c := CacheKey("caption", "example.com")

	if a != b {
		t.Error("Expected identical keys for identical input")
	}
	if a == c {
		t.Error("Expected namespaces to produce different keys")
	}
	if !strings.HasPrefix(a, "credence:v1:threat:") {
		t.Errorf("Unexpected key format: %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss on empty cache")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, ok := c.Get("k")
	if !ok || string(val) != "v" {
		t.Errorf("Expected hit with value v, got %q (%v)", val, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("test", "value")

	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A second instance on the same directory sees the entry
	other := NewDiskCache(dir, time.Hour)
	val, ok := other.Get(key)
	if !ok || string(val) != "payload" {
		t.Errorf("Expected persisted payload, got %q (%v)", val, ok)
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Deleting a missing key should not fail: %v", err)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected disk entry to expire")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set("k", []byte("v"), 0)

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	val, ok := c.Get("k")
	if !ok || string(val) != "v" {
		t.Fatalf("Expected disk hit, got %q (%v)", val, ok)
	}

	mem := c.memory.(*MemoryCache)
	if mem.Len() != 1 {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	type verdict struct {
		Listed bool   `json:"listed"`
		Threat string `json:"threat"`
	}

	if err := SetJSON(c, "k", verdict{Listed: true, Threat: "MALWARE"}, 0); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var out verdict
	if !GetJSON(c, "k", &out) {
		t.Fatal("Expected GetJSON hit")
	}
	if !out.Listed || out.Threat != "MALWARE" {
		t.Errorf("Unexpected decoded value: %+v", out)
	}

	_ = c.Set("bad", []byte("{not json"), 0)
	if GetJSON(c, "bad", &out) {
		t.Error("Expected corrupt entry to report a miss")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{Enabled: false}).(Nop); !ok {
		t.Error("Expected Nop cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}

	var n Nop
	_ = n.Set("k", []byte("v"), 0)
	if _, ok := n.Get("k"); ok {
		t.Error("Nop cache must never hit")
	}
}
