// Package service 实现媒体管线的核心业务：预签名上传签发、对象变更处理、
// 元数据同步、生命周期管理与统一操作分发.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid"

	"github.com/yeisme/mediavault/pkg/configs"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
)

// ObjectStore 媒体管线使用的对象存储窄接口，*s3.Client 是生产实现.
type ObjectStore interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, s3c.ObjectInfo, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, opts s3c.PutOptions) error
	Remove(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (s3c.ObjectInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	ListPrefix(ctx context.Context, prefix string) ([]s3c.ObjectInfo, error)
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
}

// 编译期确认生产客户端满足窄接口.
var _ ObjectStore = (*s3c.Client)(nil)

// NewAssetID 生成按时间排序的资产 ID (ULID).
func NewAssetID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// PublicReadURL 由对象键推导稳定的公共读 URL.
func PublicReadURL(key string) string {
	base := strings.TrimSuffix(configs.GetConfig().S3.GetPublicBaseURL(), "/")

	return fmt.Sprintf("%s/%s", base, key)
}

// KeyFromReadURL 从读 URL 还原对象键；不可解析时返回 ok=false.
func KeyFromReadURL(ref string) (string, bool) {
	base := strings.TrimSuffix(configs.GetConfig().S3.GetPublicBaseURL(), "/")

	if strings.HasPrefix(ref, base+"/") {
		key := strings.TrimPrefix(ref, base+"/")
		if key != "" {
			return key, true
		}

		return "", false
	}

	// 允许直接传裸对象键
	for _, prefix := range []string{
		configs.DefaultUploadsPrefix,
		configs.DefaultProcessedPrefix,
		configs.DefaultThumbnailsPrefix,
	} {
		if strings.HasPrefix(ref, prefix) {
			return ref, true
		}
	}

	return "", false
}
