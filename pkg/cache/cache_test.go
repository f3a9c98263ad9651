package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(ctx, "k", []byte("graph"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "graph" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry still present")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	_ = c.Set(ctx, "short", []byte("x"), time.Millisecond)
	_ = c.Set(ctx, "forever", []byte("y"), 0)
	time.Sleep(10 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl expired")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("x"), 0)

	path := c.path("k")
	if err := os.WriteFile(path, []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheStatsAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(strings.Repeat(k, 10)), 0)
	}

	s, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Entries != 3 || s.Bytes == 0 {
		t.Errorf("Stats = %+v", s)
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v", n, err)
	}
	if s, _ := c.Stats(); s.Entries != 0 {
		t.Errorf("entries after Clear = %d", s.Entries)
	}
}

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: mr.Addr(), Prefix: "sv:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get on empty redis: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("graph"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("sv:k") {
		t.Error("key not prefixed")
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "graph" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}

	_ = c.Set(ctx, "d", []byte("x"), 0)
	if err := c.Delete(ctx, "d"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if mr.Exists("sv:d") {
		t.Error("deleted key still in redis")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	retryDelay = time.Millisecond
	defer func() { retryDelay = 200 * time.Millisecond }()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisCache(context.Background(), RedisOptions{Addr: addr}); err == nil {
		t.Error("NewRedisCache against a closed server: want error")
	}
}

func TestRedisCacheNetworkError(t *testing.T) {
	mr, _ := miniredis.Run()
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	defer c.Close()
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Get error = %v, want ErrNetwork", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ck1 := k.CompileKey("abc", CompileKeyOpts{Prefixes: map[string]string{"ex": "http://example.org/", "rdf": "r"}})
	ck2 := k.CompileKey("abc", CompileKeyOpts{Prefixes: map[string]string{"rdf": "r", "ex": "http://example.org/"}})
	if ck1 != ck2 {
		t.Error("CompileKey depends on map order")
	}
	if !strings.HasPrefix(ck1, "compile:") {
		t.Errorf("CompileKey = %s", ck1)
	}
	if ck1 == k.CompileKey("abc", CompileKeyOpts{}) {
		t.Error("Different prefixes should produce different keys")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 900, Ticks: 300})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 800, Ticks: 300})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Renderer: "force"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Renderer: "force", Selection: "filter/0"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "api:")
	key := scoped.CompileKey("abc", CompileKeyOpts{})
	if key != "api:"+NewDefaultKeyer().CompileKey("abc", CompileKeyOpts{}) {
		t.Errorf("ScopedKeyer CompileKey unexpected: %s", key)
	}

	// nil inner falls back to the default keyer
	if got := NewScopedKeyer(nil, "p:").LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(got, "p:layout:") {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	defer func() { retryDelay = 200 * time.Millisecond }()
	ctx := context.Background()
	permanent := errors.New("permanent")

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return permanent }); err != permanent || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || err.Error() != ErrNetwork.Error() {
		t.Errorf("Retryable(ErrNetwork) = %v", err)
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestStageKeysSeparateStages(t *testing.T) {
	k := NewDefaultKeyer()
	input := Hash([]byte("SELECT * WHERE { ?s ?p ?o }"))

	compileKey := k.CompileKey(input, CompileKeyOpts{})
	layoutKey := k.LayoutKey(input, LayoutKeyOpts{})
	if !strings.HasPrefix(layoutKey, "layout:") || compileKey == layoutKey {
		t.Errorf("stage keys collide: %s, %s", compileKey, layoutKey)
	}
	if got := strings.TrimPrefix(compileKey, "compile:"); len(got) != 64 {
		t.Errorf("CompileKey digest length = %d, want 64", len(got))
	}
	if k.CompileKey(input, CompileKeyOpts{}) == k.CompileKey(Hash([]byte("ASK {}")), CompileKeyOpts{}) {
		t.Error("different query text should produce different compile keys")
	}
}
