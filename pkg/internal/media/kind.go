package media

import (
	"path"
	"strings"
)

// Kind 媒体大类，按扩展名划分.
type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindUnsupported Kind = "unsupported"
)

var (
	imageExts = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {}, ".tif": {}, ".tiff": {},
	}
	videoExts = map[string]struct{}{
		".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {}, ".m4v": {},
	}
)

// KindOf 按文件扩展名判断媒体大类，无法识别的返回 KindUnsupported（跳过，不报错）.
func KindOf(fileName string) Kind {
	ext := strings.ToLower(path.Ext(fileName))

	if _, ok := imageExts[ext]; ok {
		return KindImage
	}

	if _, ok := videoExts[ext]; ok {
		return KindVideo
	}

	return KindUnsupported
}

// ContentTypeOf 按扩展名推导 Content-Type，未知类型回落到二进制流.
func ContentTypeOf(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
