package media_test

import (
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/media"
)

func TestBuildUploadKey(t *testing.T) {
	got := media.BuildUploadKey("u123", "vacation.jpg", 1700000000000)
	want := "uploads/u123/1700000000000-vacation.jpg"

	if got != want {
		t.Errorf("BuildUploadKey = %q, want %q", got, want)
	}
}

func TestParseUploadKey(t *testing.T) {
	ref, ok := media.ParseUploadKey("uploads/u123/1700000000000-vacation.jpg")
	if !ok {
		t.Fatal("expected key to parse")
	}

	if ref.UploaderID != "u123" {
		t.Errorf("UploaderID = %q, want u123", ref.UploaderID)
	}

	if ref.BaseName != "1700000000000-vacation.jpg" {
		t.Errorf("BaseName = %q", ref.BaseName)
	}

	if ref.FileName != "vacation.jpg" {
		t.Errorf("FileName = %q, want vacation.jpg", ref.FileName)
	}

	if ref.Millis != 1700000000000 {
		t.Errorf("Millis = %d, want 1700000000000", ref.Millis)
	}
}

// TestParseUploadKeySkipsMalformed 非 uploads 前缀或段数不足的键应返回 ok=false.
func TestParseUploadKeySkipsMalformed(t *testing.T) {
	bad := []string{
		"processed/media/u123/photo.jpg",
		"uploads/orphan.jpg",
		"uploads/",
		"uploads//photo.jpg",
		"thumbnails/media/u123/photo_200.jpg",
		"",
	}

	for _, key := range bad {
		if _, ok := media.ParseUploadKey(key); ok {
			t.Errorf("ParseUploadKey(%q) ok = true, want false", key)
		}
	}
}

// TestParseUploadKeyLenientTimestamp 时间戳缺失时整段作为文件名，不报错.
func TestParseUploadKeyLenientTimestamp(t *testing.T) {
	ref, ok := media.ParseUploadKey("uploads/u123/photo.jpg")
	if !ok {
		t.Fatal("expected key to parse")
	}

	if ref.FileName != "photo.jpg" {
		t.Errorf("FileName = %q, want photo.jpg", ref.FileName)
	}

	if ref.Millis != 0 {
		t.Errorf("Millis = %d, want 0", ref.Millis)
	}
}

// TestKeyLayoutDeterministic 同一源键重复推导得到完全一致的目标键集（幂等）.
func TestKeyLayoutDeterministic(t *testing.T) {
	ref, _ := media.ParseUploadKey("uploads/u123/1700000000000-product_shot.jpg")
	cat := media.Classify("uploads/u123/1700000000000-product_shot.jpg")

	p1 := media.ProcessedKey(cat, ref.UploaderID, ref.BaseName)
	p2 := media.ProcessedKey(cat, ref.UploaderID, ref.BaseName)

	if p1 != p2 {
		t.Errorf("ProcessedKey not deterministic: %q vs %q", p1, p2)
	}

	if p1 != "processed/product_image/u123/1700000000000-product_shot.jpg" {
		t.Errorf("ProcessedKey = %q", p1)
	}

	thumb := media.ThumbnailKey(cat, ref.UploaderID, ref.BaseName, 200)
	if thumb != "thumbnails/product_image/u123/1700000000000-product_shot_200.jpg" {
		t.Errorf("ThumbnailKey = %q", thumb)
	}
}
