package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestKey(t *testing.T) {
	if got := Key("abc123", ""); got != "vision:describe:abc123" {
		t.Errorf("Key without task = %q", got)
	}
	if got := Key("abc123", "find errors"); got != "vision:describe:abc123:find errors" {
		t.Errorf("Key with task = %q", got)
	}
	if Key("abc123", "a") == Key("abc123", "b") {
		t.Error("different tasks must produce different keys")
	}
}

func TestCache_NilClientDisabled(t *testing.T) {
	c := New(nil, 0, nil)

	if c.Enabled() {
		t.Error("nil client must report disabled")
	}

	ctx := context.Background()
	c.Set(ctx, Key("fp", ""), "a description")
	if _, ok := c.Get(ctx, Key("fp", "")); ok {
		t.Error("disabled cache must always miss")
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear on disabled cache should be a no-op, got %v", err)
	}
}

func TestCache_SetGet(t *testing.T) {
	c := New(testRedis(t), time.Minute, nil)
	ctx := context.Background()

	key := Key("deadbeef01234567", "watch the build")
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected miss before set")
	}

	c.Set(ctx, key, "A terminal running a build.")

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got != "A terminal running a build." {
		t.Errorf("unexpected cached value %q", got)
	}

	if _, ok := c.Get(ctx, Key("deadbeef01234567", "")); ok {
		t.Error("taskless key must not collide with task key")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(testRedis(t), 50*time.Millisecond, nil)
	ctx := context.Background()

	key := Key("feedface", "")
	c.Set(ctx, key, "short lived")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected entry to expire")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(testRedis(t), time.Minute, nil)
	ctx := context.Background()

	c.Set(ctx, Key("aa", ""), "one")
	c.Set(ctx, Key("bb", "task"), "two")

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get(ctx, Key("aa", "")); ok {
		t.Error("expected cache to be empty after Clear")
	}
	if _, ok := c.Get(ctx, Key("bb", "task")); ok {
		t.Error("expected cache to be empty after Clear")
	}
}
