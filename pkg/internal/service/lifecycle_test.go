package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

func newTestLifecycle(store *fakeStore, now func() time.Time) *service.LifecycleManager {
	return service.NewLifecycleManagerWith(store, nil, nil, service.LifecycleOptions{
		BatchSize: 10,
		Pause:     0,
		QueueSize: 64,
		Retention: 30 * 24 * time.Hour,
		Now:       now,
		Sleep:     func(time.Duration) {},
	})
}

// TestScheduleCleanupDropsUnparseable 不可解析的引用丢弃告警，入队 0.
func TestScheduleCleanupDropsUnparseable(t *testing.T) {
	initTestConfig(t)

	m := newTestLifecycle(newFakeStore(), time.Now)

	if n := m.ScheduleCleanup([]string{"not-a-valid-url"}, "test"); n != 0 {
		t.Errorf("enqueued = %d, want 0", n)
	}

	if m.QueueDepth() != 0 {
		t.Errorf("queue depth = %d, want 0", m.QueueDepth())
	}
}

// TestScheduleCleanupDrains 入队后后台循环批量删除，调用方不阻塞.
func TestScheduleCleanupDrains(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	store.put("processed/media/u1/1-a.jpg", []byte("a"), time.Now())
	store.put("thumbnails/media/u1/1-a_200.jpg", []byte("b"), time.Now())

	m := newTestLifecycle(store, time.Now)
	m.Start(context.Background())

	n := m.ScheduleCleanup([]string{
		"processed/media/u1/1-a.jpg",
		"thumbnails/media/u1/1-a_200.jpg",
		"garbage-ref",
	}, "superseded")
	if n != 2 {
		t.Errorf("enqueued = %d, want 2", n)
	}

	m.Stop()

	if store.has("processed/media/u1/1-a.jpg") || store.has("thumbnails/media/u1/1-a_200.jpg") {
		t.Errorf("queued objects not drained, remaining: %v", store.keys())
	}
}

// TestStopDrainsAfterContextCancel 启动上下文被取消后 Stop 仍须把队列删完：
// 停机流程先取消管线上下文，排空不能跟着取消，否则有序停机退化成崩溃丢失.
func TestStopDrainsAfterContextCancel(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	store.put("processed/media/u1/1-a.jpg", []byte("a"), time.Now())

	m := newTestLifecycle(store, time.Now)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()

	if n := m.ScheduleCleanup([]string{"processed/media/u1/1-a.jpg"}, "superseded"); n != 1 {
		t.Fatalf("enqueued = %d, want 1", n)
	}

	m.Stop()

	if store.has("processed/media/u1/1-a.jpg") {
		t.Error("queued object survived shutdown drain")
	}
}

// TestScheduleCleanupPartialFailure 批内单个删除失败不影响同批其余删除.
func TestScheduleCleanupPartialFailure(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	store.put("processed/media/u1/1-a.jpg", []byte("a"), time.Now())
	store.put("processed/media/u1/1-b.jpg", []byte("b"), time.Now())
	store.removeErrs["processed/media/u1/1-a.jpg"] = errors.New("backend unavailable")

	m := newTestLifecycle(store, time.Now)
	m.Start(context.Background())
	m.ScheduleCleanup([]string{"processed/media/u1/1-a.jpg", "processed/media/u1/1-b.jpg"}, "test")
	m.Stop()

	if store.has("processed/media/u1/1-b.jpg") {
		t.Error("sibling deletion aborted by failing task")
	}

	if !store.has("processed/media/u1/1-a.jpg") {
		t.Error("failing key should remain")
	}
}

// TestBatchDeleteAggregates N 条中 M 条失败 → {success: M==0, failed 长度 M}，永不抛错.
func TestBatchDeleteAggregates(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	store.put("processed/media/u1/1-ok.jpg", []byte("a"), time.Now())
	store.put("processed/media/u1/1-bad.jpg", []byte("b"), time.Now())
	store.removeErrs["processed/media/u1/1-bad.jpg"] = errors.New("backend unavailable")

	m := newTestLifecycle(store, time.Now)

	result := m.BatchDelete(context.Background(), []types.BatchDeleteItem{
		{ID: "asset-ok", Refs: []string{"processed/media/u1/1-ok.jpg"}},
		{ID: "asset-bad", Refs: []string{"processed/media/u1/1-bad.jpg"}},
	})

	if result.Success {
		t.Error("success should be false with one failed item")
	}

	if len(result.Failed) != 1 || result.Failed[0] != "asset-bad" {
		t.Errorf("failed = %v, want [asset-bad]", result.Failed)
	}
}

// TestBatchDeleteAllOK 全部成功时 success=true，failed 为空.
func TestBatchDeleteAllOK(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	store.put("processed/media/u1/1-a.jpg", []byte("a"), time.Now())

	m := newTestLifecycle(store, time.Now)

	result := m.BatchDelete(context.Background(), []types.BatchDeleteItem{
		{ID: "asset-a", Refs: []string{"processed/media/u1/1-a.jpg"}},
	})

	if !result.Success || len(result.Failed) != 0 {
		t.Errorf("result = %+v, want success with no failures", result)
	}
}

// TestSweepOrphans 只删超过保留窗口且无处理后对应物的原始对象.
func TestSweepOrphans(t *testing.T) {
	initTestConfig(t)

	now := time.UnixMilli(1700000000000)
	old := now.Add(-31 * 24 * time.Hour)
	young := now.Add(-1 * 24 * time.Hour)

	store := newFakeStore()
	// 真孤儿：过窗口，无对应物
	store.put("uploads/u1/100-orphan.jpg", []byte("x"), old)
	// 已处理：过窗口，但有对应物
	store.put("uploads/u1/200-done.jpg", []byte("y"), old)
	store.put("processed/media/u1/200-done.jpg", []byte("y2"), old)
	// 新上传：窗口内
	store.put("uploads/u1/300-fresh.jpg", []byte("z"), young)

	m := newTestLifecycle(store, func() time.Time { return now })

	result, err := m.SweepOrphans(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}

	if result.DeletedCount != 1 {
		t.Errorf("deleted = %d, want 1", result.DeletedCount)
	}

	if store.has("uploads/u1/100-orphan.jpg") {
		t.Error("orphan should be deleted")
	}

	if !store.has("uploads/u1/200-done.jpg") {
		t.Error("processed upload must never be swept")
	}

	if !store.has("uploads/u1/300-fresh.jpg") {
		t.Error("object inside retention window must never be swept")
	}
}

// TestSweepOrphansEncodeFallback webp 上传的处理后对应物扩展名是 .jpg，
// 清扫必须按输出文件名找对应物，不得把已处理的 webp 误判为孤儿.
func TestSweepOrphansEncodeFallback(t *testing.T) {
	initTestConfig(t)

	now := time.UnixMilli(1700000000000)
	old := now.Add(-31 * 24 * time.Hour)

	store := newFakeStore()
	store.put("uploads/u1/100-pic.webp", []byte("x"), old)
	store.put("processed/media/u1/100-pic.jpg", []byte("x2"), old)

	m := newTestLifecycle(store, func() time.Time { return now })

	result, err := m.SweepOrphans(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}

	if result.DeletedCount != 0 {
		t.Errorf("deleted = %d, want 0", result.DeletedCount)
	}

	if !store.has("uploads/u1/100-pic.webp") {
		t.Error("processed webp upload must never be swept")
	}
}
