// Package media 实现媒体管线的领域逻辑：类目划分、优化策略、对象键布局与图像变换.
package media

import "strings"

// Category 资产类目，决定存储分区与优化参数.
type Category string

const (
	CategoryTimelapse       Category = "timelapse"
	CategoryFeaturePost     Category = "feature_post"
	CategoryProductImage    Category = "product_image"
	CategoryProfileImage    Category = "profile_image"
	CategoryVerificationDoc Category = "verification_doc"
	// CategoryDefault 兜底类目，路径无法识别时使用.
	CategoryDefault Category = "media"
)

// Categories 全部类目的枚举，顺序即匹配优先级.
func Categories() []Category {
	return []Category{
		CategoryTimelapse,
		CategoryFeaturePost,
		CategoryProductImage,
		CategoryProfileImage,
		CategoryVerificationDoc,
		CategoryDefault,
	}
}

// Classify 从对象键的路径子串推导类目.
// 纯函数：不嗅探内容，误放的对象按默认类目处理而不是报错.
func Classify(key string) Category {
	k := strings.ToLower(key)

	switch {
	case strings.Contains(k, "timelapse"):
		return CategoryTimelapse
	case strings.Contains(k, "feature"), strings.Contains(k, "post"):
		return CategoryFeaturePost
	case strings.Contains(k, "product"):
		return CategoryProductImage
	case strings.Contains(k, "profile"), strings.Contains(k, "avatar"):
		return CategoryProfileImage
	case strings.Contains(k, "verification"), strings.Contains(k, "document"):
		return CategoryVerificationDoc
	default:
		return CategoryDefault
	}
}

// OptimizeSettings 类目级优化参数.
type OptimizeSettings struct {
	// MaxWidth 处理后资产的最大宽度（像素），绝不放大
	MaxWidth int
	// Quality JPEG 编码质量 (1-100)
	Quality int
}

// settingsTable 类目 → 优化参数查找表.
// 认证文档偏向保真，社交缩略内容偏向体积.
var settingsTable = map[Category]OptimizeSettings{
	CategoryTimelapse:       {MaxWidth: 1080, Quality: 80},
	CategoryFeaturePost:     {MaxWidth: 1920, Quality: 85},
	CategoryProductImage:    {MaxWidth: 1600, Quality: 90},
	CategoryProfileImage:    {MaxWidth: 800, Quality: 85},
	CategoryVerificationDoc: {MaxWidth: 2048, Quality: 95},
	CategoryDefault:         {MaxWidth: 1080, Quality: 82},
}

// SettingsFor 返回类目的优化参数，未知类目回落到默认参数.
func SettingsFor(c Category) OptimizeSettings {
	if s, ok := settingsTable[c]; ok {
		return s
	}

	return settingsTable[CategoryDefault]
}
