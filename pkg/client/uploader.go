// Package client 提供移动端/前端使用的上传辅助客户端:
// 向签发端点申请预签名上传目标, 将原始字节 PUT 到写 URL, 返回稳定的读 URL.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/internal/types"
)

const (
	defaultTimeout = 30 * time.Second
	issuePath      = "/api/v1/media/uploads"

	// identityHeader 与服务端认证中间件约定的身份头 (oauth2-proxy 风格).
	identityHeader = "X-Auth-Request-Email"
)

// Uploader 封装 "申请上传目标 → 传输字节 → 记录读 URL" 的完整流程.
type Uploader struct {
	baseURL  string
	identity string
	httpc    *http.Client
}

// Option 配置 Uploader.
type Option func(*Uploader)

// WithHTTPClient 使用自定义 http.Client (超时、代理等).
func WithHTTPClient(c *http.Client) Option {
	return func(u *Uploader) { u.httpc = c }
}

// WithIdentity 设置请求身份, 随签发请求以认证头发送.
func WithIdentity(identity string) Option {
	return func(u *Uploader) { u.identity = identity }
}

// NewUploader 创建上传客户端, baseURL 为服务端地址 (如 http://localhost:8080).
func NewUploader(baseURL string, opts ...Option) *Uploader {
	u := &Uploader{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Upload 上传一段字节并返回处理管线可见的上传结果.
// 流程: 向签发端点申请 UploadTarget, 按签名绑定的 Content-Type 将 body
// PUT 到写 URL, 成功后返回包含稳定读 URL 的 target.
func (u *Uploader) Upload(ctx context.Context, fileName, contentType string, body []byte) (*types.UploadTarget, error) {
	target, err := u.IssueTarget(ctx, fileName, contentType)
	if err != nil {
		return nil, err
	}

	// 签名绑定的类型优先：与写 URL 不一致的 PUT 会被存储端拒绝
	putType := target.ContentType
	if putType == "" {
		putType = contentType
	}

	if err := u.putObject(ctx, target.WriteURL, putType, body); err != nil {
		return nil, err
	}

	return target, nil
}

// IssueTarget 向签发端点申请一个预签名上传目标.
func (u *Uploader) IssueTarget(ctx context.Context, fileName, contentType string) (*types.UploadTarget, error) {
	reqBody, err := sonic.Marshal(types.IssueUploadRequest{
		FileName:    fileName,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal issue request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+issuePath, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build issue request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if u.identity != "" {
		req.Header.Set(identityHeader, u.identity)
	}

	resp, err := u.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request upload target: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read issue response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("issue endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var target types.UploadTarget
	if err := sonic.Unmarshal(raw, &target); err != nil {
		return nil, fmt.Errorf("decode upload target: %w", err)
	}

	if target.WriteURL == "" {
		return nil, fmt.Errorf("issue endpoint returned empty write url")
	}

	return &target, nil
}

// putObject 将字节以单次 PUT 写入预签名 URL.
// x-amz-acl 头与签发策略一致, 保证对象写入后可被读 URL 直接访问.
func (u *Uploader) putObject(ctx context.Context, writeURL, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, writeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build put request: %w", err)
	}

	req.ContentLength = int64(len(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("x-amz-acl", "public-read")

	resp, err := u.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return fmt.Errorf("storage returned %d: %s", resp.StatusCode, raw)
	}

	return nil
}
