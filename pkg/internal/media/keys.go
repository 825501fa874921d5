package media

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/yeisme/mediavault/pkg/configs"
)

// UploadRef 上传对象键解析结果.
type UploadRef struct {
	// UploaderID 键的第二段
	UploaderID string
	// BaseName 去掉前缀和上传者后剩余的部分，形如 {unixMillis}-{fileName}
	BaseName string
	// FileName 去掉时间戳前缀后的原始文件名
	FileName string
	// Millis 键中编码的上传时间戳（毫秒），解析失败为 0
	Millis int64
}

// BuildUploadKey 构建上传对象键：uploads/{uploaderId}/{unixMillis}-{fileName}.
// 按用户分区、按时间排序、无需协调服务即可防撞.
func BuildUploadKey(uploaderID, fileName string, unixMillis int64) string {
	return fmt.Sprintf("%s%s/%d-%s", configs.DefaultUploadsPrefix, uploaderID, unixMillis, fileName)
}

// ParseUploadKey 解析上传对象键.
// 前缀不匹配或段数不足 3 返回 ok=false，调用方应跳过而非报错（预期噪音）.
func ParseUploadKey(key string) (UploadRef, bool) {
	if !strings.HasPrefix(key, configs.DefaultUploadsPrefix) {
		return UploadRef{}, false
	}

	segments := strings.Split(key, "/")
	if len(segments) < 3 {
		return UploadRef{}, false
	}

	ref := UploadRef{
		UploaderID: segments[1],
		BaseName:   strings.Join(segments[2:], "/"),
	}

	if ref.UploaderID == "" || ref.BaseName == "" {
		return UploadRef{}, false
	}

	// {unixMillis}-{fileName} 宽松解析：时间戳缺失时整段视为文件名
	ref.FileName = ref.BaseName

	if idx := strings.Index(ref.BaseName, "-"); idx > 0 {
		if millis, err := strconv.ParseInt(ref.BaseName[:idx], 10, 64); err == nil {
			ref.Millis = millis
			ref.FileName = ref.BaseName[idx+1:]
		}
	}

	return ref, true
}

// ProcessedKey 处理后资产的对象键：processed/{category}/{userId}/{baseName}.
// 对同一源键是确定性的，重复处理覆盖同一目标（幂等，可安全重试）.
func ProcessedKey(category Category, userID, baseName string) string {
	return fmt.Sprintf("%s%s/%s/%s", configs.DefaultProcessedPrefix, category, userID, baseName)
}

// ThumbnailKey 缩略图对象键：thumbnails/{category}/{userId}/{base}_{size}{ext}.
func ThumbnailKey(category Category, userID, baseName string, size int) string {
	ext := path.Ext(baseName)
	stem := strings.TrimSuffix(baseName, ext)

	return fmt.Sprintf("%s%s/%s/%s_%d%s", configs.DefaultThumbnailsPrefix, category, userID, stem, size, ext)
}
