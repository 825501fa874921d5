package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // 注册 webp 解码
)

// DecodeImage 解码图像并按 EXIF 自动旋转.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return img, nil
}

// Optimize 按类目策略生成处理后的主资产：宽度超过 MaxWidth 时等比缩放，绝不放大.
func Optimize(src image.Image, fileName string, set OptimizeSettings) ([]byte, error) {
	out := src

	if src.Bounds().Dx() > set.MaxWidth {
		out = imaging.Resize(src, set.MaxWidth, 0, imaging.Lanczos)
	}

	return encodeImage(out, fileName, set.Quality)
}

// SquareThumbnail 生成正方形中心裁剪缩略图.
func SquareThumbnail(src image.Image, fileName string, size, quality int) ([]byte, error) {
	thumb := imaging.Fill(src, size, size, imaging.Center, imaging.Lanczos)

	return encodeImage(thumb, fileName, quality)
}

// OutputName 编码输出对应的文件名.
// imaging 只解码不编码的图像格式（如 webp）回落到 JPEG 编码，
// 此时扩展名也换成 .jpg，保证存储的字节与键/Content-Type 一致.
// 非图像文件名原样返回.
func OutputName(fileName string) string {
	if KindOf(fileName) != KindImage {
		return fileName
	}

	if _, err := imaging.FormatFromFilename(fileName); err == nil {
		return fileName
	}

	return strings.TrimSuffix(fileName, path.Ext(fileName)) + ".jpg"
}

// encodeImage 按文件名推导编码格式，无法编码的格式（如 webp）回落到 JPEG.
func encodeImage(img image.Image, fileName string, quality int) ([]byte, error) {
	format, err := imaging.FormatFromFilename(fileName)
	if err != nil {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), nil
}
