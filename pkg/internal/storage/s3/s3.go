// Package s3 处理S3存储操作.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/mediavault/pkg/configs"
	nlog "github.com/yeisme/mediavault/pkg/log"
)

// Client 包装 MinIO 客户端，提供媒体管线使用的窄接口.
type Client struct {
	*minio.Client

	bucket string
}

// ObjectInfo 对象元信息的窄视图.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	UserMetadata map[string]string
}

// PutOptions 写入对象时的可选项.
type PutOptions struct {
	ContentType  string
	UserMetadata map[string]string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().S3
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("mediavault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.BucketName}, nil
}

// Bucket 返回客户端绑定的 bucket 名称.
func (c *Client) Bucket() string {
	return c.bucket
}

// Fetch 读取对象，调用者负责关闭返回的 ReadCloser.
func (c *Client) Fetch(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := c.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get object %s: %w", key, err)
	}

	// GetObject 是惰性的，Stat 触发首个请求以尽早暴露 NoSuchKey
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()

		return nil, ObjectInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}

	return obj, toObjectInfo(stat), nil
}

// Put 写入对象.
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) error {
	_, err := c.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.UserMetadata,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// Remove 删除对象，删除不存在的对象不报错.
func (c *Client) Remove(ctx context.Context, key string) error {
	if err := c.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// Stat 查询对象元信息.
func (c *Client) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	stat, err := c.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}

	return toObjectInfo(stat), nil
}

// Exists 判断对象是否存在，NoSuchKey 返回 false 而非错误.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return false, nil
		}

		return false, fmt.Errorf("stat object %s: %w", key, err)
	}

	return true, nil
}

// ListPrefix 列出指定前缀下的所有对象（递归）.
func (c *Client) ListPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo

	for obj := range c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list prefix %s: %w", prefix, obj.Err)
		}

		out = append(out, toObjectInfo(obj))
	}

	return out, nil
}

// PresignPut 生成限时 PUT 上传 URL.
// contentType 非空时参与签名：客户端必须以同样的 Content-Type 执行 PUT，
// 否则签名校验失败，URL 只对声明的内容类型有效.
func (c *Client) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if contentType == "" {
		u, err := c.PresignedPutObject(ctx, c.bucket, key, expiry)
		if err != nil {
			return "", fmt.Errorf("presign put %s: %w", key, err)
		}

		return u.String(), nil
	}

	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	u, err := c.PresignHeader(ctx, http.MethodPut, c.bucket, key, expiry, url.Values{}, headers)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}

	return u.String(), nil
}

// HealthCheck 简单的健康检查，通过列出桶来验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListBuckets(ctx)
	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}

func toObjectInfo(info minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		UserMetadata: info.UserMetadata,
	}
}
