package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/mediavault/pkg/cache"
	"github.com/yeisme/mediavault/pkg/internal/storage/kv"
)

type asset struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

func newMemoryCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("new memory kv: %v", err)
	}

	return cache.NewCache(store)
}

// TestSetGetRoundTrip 写入后可按类型读回.
func TestSetGetRoundTrip(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	want := asset{ID: "01HTESTASSETID0000000000AA", Category: "timelapse"}
	if err := cache.Set(ctx, c, "mv:asset:1", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := cache.Get[asset](ctx, c, "mv:asset:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestGetMiss 未命中返回底层存储的错误.
func TestGetMiss(t *testing.T) {
	c := newMemoryCache(t)

	if _, err := cache.Get[asset](context.Background(), c, "missing"); err == nil {
		t.Fatal("expected cache miss error")
	}
}

// TestGetOrSetPopulates 未命中时执行 getter 并回填.
func TestGetOrSetPopulates(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	calls := 0
	getter := func() (asset, error) {
		calls++
		return asset{ID: "a1", Category: "media"}, nil
	}

	first, err := cache.GetOrSet(ctx, c, "mv:asset:a1", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}

	second, err := cache.GetOrSet(ctx, c, "mv:asset:a1", getter, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet second: %v", err)
	}

	if calls != 1 {
		t.Errorf("getter calls = %d, want 1 (second hit from cache)", calls)
	}

	if first != second {
		t.Errorf("values differ: %+v vs %+v", first, second)
	}
}

// TestDelete 删除后再次读取未命中.
func TestDelete(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, c, "k", asset{ID: "x"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := cache.Get[asset](ctx, c, "k"); err == nil {
		t.Fatal("expected miss after delete")
	}
}
