package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/types"
	nlog "github.com/yeisme/mediavault/pkg/log"
)

// AnonymousUploader 身份解析失败时的兜底上传者段.
// 宽松策略：上传不会纯因身份解析失败而硬失败，是否允许匿名由前置网关决定.
const AnonymousUploader = "anonymous"

// UploadIssuer 预签名上传签发器：给定文件名与内容类型，
// 生成限时单次 PUT 的写 URL 与未来的稳定读 URL，按上传者身份分区.
type UploadIssuer struct {
	store ObjectStore
	ttl   time.Duration
	// now 可注入的时钟，测试用
	now func() time.Time
}

// NewUploadIssuer 从请求上下文取存储客户端构造签发器.
func NewUploadIssuer(c context.Context) *UploadIssuer {
	return &UploadIssuer{
		store: ctxPkg.GetS3Client(c),
		ttl:   configs.GetConfig().Media.GetUploadTTL(),
		now:   time.Now,
	}
}

// NewUploadIssuerWith 显式注入依赖的构造函数，测试用.
func NewUploadIssuerWith(store ObjectStore, ttl time.Duration, now func() time.Time) *UploadIssuer {
	return &UploadIssuer{store: store, ttl: ttl, now: now}
}

// ResolveUploader 解析上传者标识：认证身份 > 显式参数 > "anonymous".
func ResolveUploader(c context.Context, explicit string) string {
	if id := ctxPkg.GetUploader(c); id != "" {
		return id
	}

	if explicit != "" {
		return explicit
	}

	return AnonymousUploader
}

// Issue 签发上传目标.
// 对象键为 uploads/{uploaderId}/{unixMillis}-{fileName}：按用户分区、
// 按时间排序、无需协调服务即可防撞. 签发本身不产生任何存储状态，
// 仅当客户端真正执行 PUT 时对象才存在.
// 失败仅来自签名操作本身（IssuanceError），绝不因调用方元数据失败.
func (i *UploadIssuer) Issue(ctx context.Context, req *types.IssueUploadRequest) (*types.UploadTarget, error) {
	uploader := ResolveUploader(ctx, req.Uploader)
	millis := i.now().UnixMilli()
	objectKey := media.BuildUploadKey(uploader, req.FileName, millis)

	// 内容类型参与签名：写 URL 只对声明的类型有效
	contentType := req.ContentType
	if contentType == "" {
		contentType = media.ContentTypeOf(req.FileName)
	}

	writeURL, err := i.store.PresignPut(ctx, objectKey, contentType, i.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue upload target for %s: %w", req.FileName, err)
	}

	nlog.Logger().Debug().
		Str("uploader", uploader).
		Str("object_key", objectKey).
		Msg("upload target issued")

	return &types.UploadTarget{
		ObjectKey:   objectKey,
		WriteURL:    writeURL,
		ReadURL:     PublicReadURL(objectKey),
		ContentType: contentType,
		ExpiresIn:   int(i.ttl.Seconds()),
	}, nil
}
