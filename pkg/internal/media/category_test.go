package media_test

import (
	"testing"

	"github.com/yeisme/mediavault/pkg/internal/media"
)

// TestClassify 穷举各类目的路径子串匹配与默认回落.
func TestClassify(t *testing.T) {
	cases := []struct {
		key  string
		want media.Category
	}{
		{"uploads/u123/1700000000000-timelapse_morning.jpg", media.CategoryTimelapse},
		{"uploads/u123/1700000000000-feature_banner.jpg", media.CategoryFeaturePost},
		{"uploads/u123/1700000000000-post_cover.png", media.CategoryFeaturePost},
		{"uploads/u123/1700000000000-product_main.jpg", media.CategoryProductImage},
		{"uploads/u123/1700000000000-profile_pic.jpg", media.CategoryProfileImage},
		{"uploads/u123/1700000000000-avatar.png", media.CategoryProfileImage},
		{"uploads/u123/1700000000000-verification_id.jpg", media.CategoryVerificationDoc},
		{"uploads/u123/1700000000000-document_scan.png", media.CategoryVerificationDoc},
		{"uploads/u123/1700000000000-vacation.jpg", media.CategoryDefault},
		{"uploads/u123/1700000000000-IMG_0042.HEIC", media.CategoryDefault},
		// 大小写不敏感
		{"uploads/u123/1700000000000-TIMELAPSE.jpg", media.CategoryTimelapse},
	}

	for _, c := range cases {
		if got := media.Classify(c.key); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.key, got, c.want)
		}
	}
}

// TestSettingsFor 验证每个类目都有参数且未知类目回落默认.
func TestSettingsFor(t *testing.T) {
	for _, cat := range media.Categories() {
		s := media.SettingsFor(cat)
		if s.MaxWidth <= 0 {
			t.Errorf("SettingsFor(%q).MaxWidth = %d, want > 0", cat, s.MaxWidth)
		}

		if s.Quality <= 0 || s.Quality > 100 {
			t.Errorf("SettingsFor(%q).Quality = %d, want 1-100", cat, s.Quality)
		}
	}

	def := media.SettingsFor(media.CategoryDefault)
	if got := media.SettingsFor(media.Category("nonexistent")); got != def {
		t.Errorf("SettingsFor(unknown) = %+v, want default %+v", got, def)
	}
}

// TestSettingsForVerificationFavorsQuality 认证文档参数应高于社交缩略内容.
func TestSettingsForVerificationFavorsQuality(t *testing.T) {
	doc := media.SettingsFor(media.CategoryVerificationDoc)
	tl := media.SettingsFor(media.CategoryTimelapse)

	if doc.Quality <= tl.Quality {
		t.Errorf("verification quality %d should exceed timelapse quality %d", doc.Quality, tl.Quality)
	}

	if doc.MaxWidth <= tl.MaxWidth {
		t.Errorf("verification max width %d should exceed timelapse max width %d", doc.MaxWidth, tl.MaxWidth)
	}
}
