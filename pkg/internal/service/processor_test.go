package service_test

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/yeisme/mediavault/pkg/internal/service"
)

func newTestProcessor(store *fakeStore) *service.Processor {
	return service.NewProcessorWith(store, nil, []int{200, 400, 800}, 85, fixedNow)
}

// TestProcessImage 图像通道：策略化缩放 + 三级方形缩略图.
func TestProcessImage(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	key := "uploads/u123/1700000000000-photo.jpg"
	store.put(key, encodeTestJPEG(t, 2000, 1000), time.Now())

	result, err := newTestProcessor(store).Process(context.Background(), "mediavault", key)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}

	// 默认类目 media：maxWidth 1080
	processedKey := "processed/media/u123/1700000000000-photo.jpg"
	if !store.has(processedKey) {
		t.Fatalf("processed asset missing, stored keys: %v", store.keys())
	}

	img, err := imaging.Decode(bytes.NewReader(store.get(processedKey)))
	if err != nil {
		t.Fatalf("decode processed: %v", err)
	}

	if img.Bounds().Dx() != 1080 {
		t.Errorf("processed width = %d, want 1080", img.Bounds().Dx())
	}

	// 缩略图数量等于阶梯长度，且都是方形
	if len(result.ThumbnailURLs) != 3 {
		t.Fatalf("thumbnail count = %d, want 3", len(result.ThumbnailURLs))
	}

	for _, size := range []int{200, 400, 800} {
		k := "thumbnails/media/u123/1700000000000-photo_" + strconv.Itoa(size) + ".jpg"
		if !store.has(k) {
			t.Fatalf("thumbnail %s missing", k)
		}

		thumb, err := imaging.Decode(bytes.NewReader(store.get(k)))
		if err != nil {
			t.Fatalf("decode thumbnail: %v", err)
		}

		if thumb.Bounds().Dx() != size || thumb.Bounds().Dy() != size {
			t.Errorf("thumbnail %d: got %dx%d", size, thumb.Bounds().Dx(), thumb.Bounds().Dy())
		}
	}
}

// TestProcessWebpOutputsJPEGKeys webp 源编码回落 JPEG 时，
// 目标键扩展名与 Content-Type 必须跟着输出格式走，存储字节与声明类型不能背离.
func TestProcessWebpOutputsJPEGKeys(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	key := "uploads/u123/1700000000000-photo.webp"
	// imaging 按内容嗅探解码格式，扩展名只决定编码回落
	store.put(key, encodeTestJPEG(t, 1200, 800), time.Now())

	result, err := newTestProcessor(store).Process(context.Background(), "mediavault", key)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	processedKey := "processed/media/u123/1700000000000-photo.jpg"
	if !store.has(processedKey) {
		t.Fatalf("processed asset missing, stored keys: %v", store.keys())
	}

	if store.has("processed/media/u123/1700000000000-photo.webp") {
		t.Error("webp-extension key written despite JPEG fallback")
	}

	info, err := store.Stat(context.Background(), processedKey)
	if err != nil {
		t.Fatalf("stat processed: %v", err)
	}

	if info.ContentType != "image/jpeg" {
		t.Errorf("processed content type = %q, want image/jpeg", info.ContentType)
	}

	if !strings.HasSuffix(result.ProcessedURL, ".jpg") {
		t.Errorf("ProcessedURL = %q, want .jpg suffix", result.ProcessedURL)
	}

	for _, size := range []int{200, 400, 800} {
		k := "thumbnails/media/u123/1700000000000-photo_" + strconv.Itoa(size) + ".jpg"
		if !store.has(k) {
			t.Fatalf("thumbnail %s missing, stored keys: %v", k, store.keys())
		}
	}
}

// TestProcessNeverUpscales 原图小于策略宽度时保持原尺寸.
func TestProcessNeverUpscales(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	key := "uploads/u123/1700000000000-small.jpg"
	store.put(key, encodeTestJPEG(t, 640, 480), time.Now())

	if _, err := newTestProcessor(store).Process(context.Background(), "mediavault", key); err != nil {
		t.Fatalf("Process: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(store.get("processed/media/u123/1700000000000-small.jpg")))
	if err != nil {
		t.Fatalf("decode processed: %v", err)
	}

	if img.Bounds().Dx() != 640 {
		t.Errorf("processed width = %d, want 640 (no upscale)", img.Bounds().Dx())
	}
}

// TestProcessIdempotentKeyLayout 同一源键重复处理覆盖同一目标键集.
func TestProcessIdempotentKeyLayout(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	key := "uploads/u123/1700000000000-photo.jpg"
	store.put(key, encodeTestJPEG(t, 2000, 1000), time.Now())

	proc := newTestProcessor(store)

	if _, err := proc.Process(context.Background(), "mediavault", key); err != nil {
		t.Fatalf("first process: %v", err)
	}

	first := store.keys()
	sort.Strings(first)

	if _, err := proc.Process(context.Background(), "mediavault", key); err != nil {
		t.Fatalf("second process: %v", err)
	}

	second := store.keys()
	sort.Strings(second)

	if len(first) != len(second) {
		t.Fatalf("key count changed on reprocess: %d vs %d", len(first), len(second))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("key set differs: %q vs %q", first[i], second[i])
		}
	}
}

// TestProcessSkipsMalformedKey uploads 之外或段数不足的键跳过，不报错.
func TestProcessSkipsMalformedKey(t *testing.T) {
	initTestConfig(t)

	proc := newTestProcessor(newFakeStore())

	for _, key := range []string{
		"processed/media/u123/photo.jpg",
		"uploads/orphan.jpg",
		"lifecycle-marker",
	} {
		result, err := proc.Process(context.Background(), "mediavault", key)
		if err != nil {
			t.Fatalf("Process(%q): %v", key, err)
		}

		if !result.Skipped {
			t.Errorf("Process(%q) not skipped", key)
		}
	}
}

// TestProcessSkipsUnsupportedType 不支持的扩展名跳过，不报错.
func TestProcessSkipsUnsupportedType(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	key := "uploads/u123/1700000000000-notes.txt"
	store.put(key, []byte("plain text"), time.Now())

	result, err := newTestProcessor(store).Process(context.Background(), "mediavault", key)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !result.Skipped {
		t.Error("expected unsupported type to be skipped")
	}
}

// TestProcessMissingObjectFails 读取失败属于 ProcessingFailure，传播给触发方重试.
func TestProcessMissingObjectFails(t *testing.T) {
	initTestConfig(t)

	if _, err := newTestProcessor(newFakeStore()).Process(context.Background(), "mediavault", "uploads/u123/1700000000000-gone.jpg"); err == nil {
		t.Fatal("expected fetch failure to propagate")
	}
}

// TestProcessVideoStub 视频通道：原样拷贝 + 单张占位缩略图.
func TestProcessVideoStub(t *testing.T) {
	initTestConfig(t)

	store := newFakeStore()
	key := "uploads/u123/1700000000000-clip.mp4"
	raw := []byte("fake-video-bytes")
	store.put(key, raw, time.Now())

	result, err := newTestProcessor(store).Process(context.Background(), "mediavault", key)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	processedKey := "processed/media/u123/1700000000000-clip.mp4"
	if !bytes.Equal(store.get(processedKey), raw) {
		t.Error("video bytes should be copied unchanged")
	}

	if len(result.ThumbnailURLs) != 1 {
		t.Errorf("video thumbnail count = %d, want 1 placeholder", len(result.ThumbnailURLs))
	}
}
