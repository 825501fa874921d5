package media_test

import (
	"bytes"
	"image"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/yeisme/mediavault/pkg/internal/media"
)

// testImage 生成指定尺寸的测试图.
func testImage(w, h int) image.Image {
	return imaging.New(w, h, image.Transparent.C)
}

func decodeBytes(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	return img
}

// TestOptimizeCapsWidth 超宽图按 MaxWidth 等比缩放.
func TestOptimizeCapsWidth(t *testing.T) {
	src := testImage(2000, 1000)
	set := media.OptimizeSettings{MaxWidth: 1080, Quality: 82}

	data, err := media.Optimize(src, "photo.jpg", set)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	out := decodeBytes(t, data)
	if out.Bounds().Dx() != 1080 {
		t.Errorf("width = %d, want 1080", out.Bounds().Dx())
	}

	// 等比缩放
	if out.Bounds().Dy() != 540 {
		t.Errorf("height = %d, want 540", out.Bounds().Dy())
	}
}

// TestOptimizeNeverUpscales 源宽小于 MaxWidth 时保持原尺寸.
func TestOptimizeNeverUpscales(t *testing.T) {
	src := testImage(640, 480)
	set := media.OptimizeSettings{MaxWidth: 1920, Quality: 85}

	data, err := media.Optimize(src, "small.png", set)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	out := decodeBytes(t, data)
	if out.Bounds().Dx() != 640 || out.Bounds().Dy() != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

// TestSquareThumbnail 缩略图必须是正方形.
func TestSquareThumbnail(t *testing.T) {
	src := testImage(2000, 1000)

	for _, size := range []int{200, 400, 800} {
		data, err := media.SquareThumbnail(src, "photo.jpg", size, 85)
		if err != nil {
			t.Fatalf("SquareThumbnail(%d): %v", size, err)
		}

		out := decodeBytes(t, data)
		if out.Bounds().Dx() != size || out.Bounds().Dy() != size {
			t.Errorf("thumbnail %d: got %dx%d", size, out.Bounds().Dx(), out.Bounds().Dy())
		}
	}
}

// TestEncodeFallbackToJPEG 不支持编码的扩展名回落 JPEG，不报错.
func TestEncodeFallbackToJPEG(t *testing.T) {
	src := testImage(100, 100)

	data, err := media.Optimize(src, "photo.webp", media.OptimizeSettings{MaxWidth: 1080, Quality: 82})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if len(data) == 0 {
		t.Error("empty output")
	}
}

// TestOutputName 编码回落的图像扩展名换成 .jpg，其余文件名原样返回.
func TestOutputName(t *testing.T) {
	cases := map[string]string{
		"photo.webp":           "photo.jpg",
		"1700000000000-a.webp": "1700000000000-a.jpg",
		"photo.jpg":            "photo.jpg",
		"photo.png":            "photo.png",
		"clip.mp4":             "clip.mp4",
		"notes.txt":            "notes.txt",
	}

	for in, want := range cases {
		if got := media.OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestVideoPlaceholderThumbnail 占位图尺寸正确且可解码.
func TestVideoPlaceholderThumbnail(t *testing.T) {
	data, err := media.VideoPlaceholderThumbnail(200, 85)
	if err != nil {
		t.Fatalf("VideoPlaceholderThumbnail: %v", err)
	}

	out := decodeBytes(t, data)
	if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 200 {
		t.Errorf("got %dx%d, want 200x200", out.Bounds().Dx(), out.Bounds().Dy())
	}
}
