package media

import (
	"image/color"

	"github.com/disintegration/imaging"
)

// 视频通道目前是占位实现：不做真实转码，处理阶段原样拷贝字节，
// 时长固定为 0，缩略图用纯色占位图代替首帧.
// TODO: 接入 ffmpeg 抽帧与时长探测后移除占位逻辑.

// PlaceholderVideoDuration 占位时长（秒）.
const PlaceholderVideoDuration float64 = 0

// placeholderFill 占位缩略图的填充色（中性灰）.
var placeholderFill = color.NRGBA{R: 0x2e, G: 0x2e, B: 0x2e, A: 0xff}

// VideoPlaceholderThumbnail 生成视频占位缩略图（纯色 JPEG）.
func VideoPlaceholderThumbnail(size, quality int) ([]byte, error) {
	img := imaging.New(size, size, placeholderFill)

	return encodeImage(img, "placeholder.jpg", quality)
}
