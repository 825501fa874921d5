package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/media"
	kvc "github.com/yeisme/mediavault/pkg/internal/storage/kv"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
	"github.com/yeisme/mediavault/pkg/internal/types"
	nlog "github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/queue"
)

// statusCacheTTL 处理状态在 KV 缓存中的保留时长.
const statusCacheTTL = 24 * time.Hour

// StatusCacheKey 资产处理状态的缓存键.
func StatusCacheKey(assetID string) string {
	return "mv:status:" + assetID
}

// Processor 对象变更处理器：uploads 命名空间每落一个对象触发一次.
// 无状态，可并发调用；幂等的目标键布局保证重复处理安全（last write wins）.
type Processor struct {
	store ObjectStore
	meta  *MetadataSynchronizer
	// pub 事件发布，可为 nil（发布失败不影响处理结果）
	pub message.Publisher
	// kv 处理状态缓存，可为 nil
	kv *kvc.Client

	sizes        []int
	thumbQuality int
	now          func() time.Time
}

// NewProcessor 从请求上下文取存储客户端构造处理器.
func NewProcessor(c context.Context) *Processor {
	mediaCfg := configs.GetConfig().Media

	var pub message.Publisher
	if mq := ctxPkg.GetMQClient(c); mq != nil {
		pub = mqPublisher{mq: mq, ctx: c}
	}

	return &Processor{
		store:        ctxPkg.GetS3Client(c),
		meta:         NewMetadataSynchronizer(c),
		pub:          pub,
		kv:           ctxPkg.GetKVClient(c),
		sizes:        mediaCfg.ThumbnailSizes,
		thumbQuality: mediaCfg.ThumbnailQuality,
		now:          time.Now,
	}
}

// NewProcessorWith 显式注入依赖的构造函数，测试用.
func NewProcessorWith(store ObjectStore, meta *MetadataSynchronizer, sizes []int, thumbQuality int, now func() time.Time) *Processor {
	return &Processor{
		store:        store,
		meta:         meta,
		sizes:        sizes,
		thumbQuality: thumbQuality,
		now:          now,
	}
}

// Process 处理一次对象创建事件.
// 存储写入成功即处理成功；元数据同步与事件发布是尽力而为的覆盖层，
// 它们的失败只记日志，绝不把一次成功的媒体变换报告成用户可见的错误.
// 返回 error 仅当读/写对象存储失败（交由触发方重试）.
func (p *Processor) Process(ctx context.Context, bucket, key string) (*types.ProcessResult, error) {
	start := p.now()

	// 1. uploads 之外或段数不足的键是预期噪音：跳过，不报错
	ref, ok := media.ParseUploadKey(key)
	if !ok {
		return p.skip(bucket, key, "key outside uploads namespace or malformed"), nil
	}

	category := media.Classify(key)

	// 2. 按扩展名分类；不支持的类型跳过
	kind := media.KindOf(ref.FileName)
	if kind == media.KindUnsupported {
		return p.skip(bucket, key, fmt.Sprintf("unsupported media type: %s", ref.FileName)), nil
	}

	// 3. 取对象体（只读一次，绝不原地修改）
	body, info, err := p.store.Fetch(ctx, key)
	if err != nil {
		metrics.ProcessedCounter.WithLabelValues(string(category), "failed").Inc()
		p.publishFailed(bucket, key, err)

		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer func() { _ = body.Close() }()

	desc := &types.AssetDescriptor{
		AssetID:     NewAssetID(start),
		UploaderID:  ref.UploaderID,
		Category:    string(category),
		SourceKey:   key,
		FileName:    ref.FileName,
		ContentType: info.ContentType,
		Size:        info.Size,
		ETag:        info.ETag,
		ProcessedAt: p.now(),
	}

	switch kind {
	case media.KindImage:
		err = p.processImage(ctx, ref, category, body, desc)
	case media.KindVideo:
		err = p.processVideo(ctx, ref, category, body, info.Size, desc)
	}

	if err != nil {
		metrics.ProcessedCounter.WithLabelValues(string(category), "failed").Inc()
		p.publishFailed(bucket, key, err)

		return nil, err
	}

	metrics.ProcessedCounter.WithLabelValues(string(category), "processed").Inc()
	metrics.ProcessDuration.WithLabelValues(string(category)).Observe(p.now().Sub(start).Seconds())

	// 元数据同步失败只记日志：已写入的存储对象不回滚
	if p.meta != nil {
		if err := p.meta.Upsert(ctx, desc); err != nil {
			nlog.Logger().Warn().Err(err).
				Str("asset_id", desc.AssetID).
				Msg("metadata sync failed after successful processing")
		}
	}

	p.cacheStatus(ctx, desc.AssetID, "PROCESSED")
	p.publishProcessed(bucket, desc)

	thumbURLs := make([]string, 0, len(desc.ThumbnailKeys))
	for _, k := range desc.ThumbnailKeys {
		thumbURLs = append(thumbURLs, PublicReadURL(k))
	}

	return &types.ProcessResult{
		AssetID:       desc.AssetID,
		Category:      desc.Category,
		OriginalURL:   PublicReadURL(key),
		ProcessedURL:  PublicReadURL(desc.ProcessedKey),
		ThumbnailURLs: thumbURLs,
		Metadata: map[string]string{
			"uploader": desc.UploaderID,
			"etag":     desc.ETag,
		},
	}, nil
}

// processImage 图像通道：策略化重编码 + 固定缩略图梯队.
func (p *Processor) processImage(ctx context.Context, ref media.UploadRef, category media.Category, body io.Reader, desc *types.AssetDescriptor) error {
	img, err := media.DecodeImage(body)
	if err != nil {
		return fmt.Errorf("decode %s: %w", desc.SourceKey, err)
	}

	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()
	settings := media.SettingsFor(category)

	// 编码回落（如 webp→JPEG）时键与 Content-Type 跟着输出格式走
	outName := media.OutputName(ref.FileName)
	outBase := media.OutputName(ref.BaseName)

	processed, err := media.Optimize(img, outName, settings)
	if err != nil {
		return fmt.Errorf("optimize %s: %w", desc.SourceKey, err)
	}

	processedKey := media.ProcessedKey(category, ref.UploaderID, outBase)
	putOpts := s3c.PutOptions{
		ContentType: media.ContentTypeOf(outName),
		UserMetadata: map[string]string{
			"original-width":  strconv.Itoa(origW),
			"original-height": strconv.Itoa(origH),
			"category":        string(category),
			"owner":           ref.UploaderID,
		},
	}

	if err := p.store.Put(ctx, processedKey, bytes.NewReader(processed), int64(len(processed)), putOpts); err != nil {
		return fmt.Errorf("write processed asset: %w", err)
	}

	thumbKeys := make([]string, 0, len(p.sizes))

	for _, size := range p.sizes {
		thumb, err := media.SquareThumbnail(img, outName, size, p.thumbQuality)
		if err != nil {
			return fmt.Errorf("thumbnail %dpx for %s: %w", size, desc.SourceKey, err)
		}

		thumbKey := media.ThumbnailKey(category, ref.UploaderID, outBase, size)
		thumbOpts := s3c.PutOptions{ContentType: media.ContentTypeOf(outName)}

		if err := p.store.Put(ctx, thumbKey, bytes.NewReader(thumb), int64(len(thumb)), thumbOpts); err != nil {
			return fmt.Errorf("write thumbnail %s: %w", thumbKey, err)
		}

		thumbKeys = append(thumbKeys, thumbKey)
	}

	desc.ProcessedKey = processedKey
	desc.ThumbnailKeys = thumbKeys
	desc.Width = origW
	desc.Height = origH

	return nil
}

// processVideo 视频通道（占位实现）：原样拷贝字节，生成单张占位缩略图，时长 0.
func (p *Processor) processVideo(ctx context.Context, ref media.UploadRef, category media.Category, body io.Reader, size int64, desc *types.AssetDescriptor) error {
	processedKey := media.ProcessedKey(category, ref.UploaderID, ref.BaseName)
	putOpts := s3c.PutOptions{
		ContentType: media.ContentTypeOf(ref.FileName),
		UserMetadata: map[string]string{
			"category": string(category),
			"owner":    ref.UploaderID,
		},
	}

	if err := p.store.Put(ctx, processedKey, body, size, putOpts); err != nil {
		return fmt.Errorf("copy video to processed partition: %w", err)
	}

	thumbSize := 200
	if len(p.sizes) > 0 {
		thumbSize = p.sizes[0]
	}

	placeholder, err := media.VideoPlaceholderThumbnail(thumbSize, p.thumbQuality)
	if err != nil {
		return fmt.Errorf("placeholder thumbnail: %w", err)
	}

	thumbKey := media.ThumbnailKey(category, ref.UploaderID, ref.BaseName+".jpg", thumbSize)

	if err := p.store.Put(ctx, thumbKey, bytes.NewReader(placeholder), int64(len(placeholder)), s3c.PutOptions{ContentType: "image/jpeg"}); err != nil {
		return fmt.Errorf("write placeholder thumbnail: %w", err)
	}

	desc.ProcessedKey = processedKey
	desc.ThumbnailKeys = []string{thumbKey}
	desc.DurationSeconds = media.PlaceholderVideoDuration

	return nil
}

// skip 构造跳过结果并发布预期噪音事件.
func (p *Processor) skip(bucket, key, reason string) *types.ProcessResult {
	nlog.Logger().Debug().Str("key", key).Str("reason", reason).Msg("object event skipped")

	if p.pub != nil {
		_ = queue.PublishMediaSkipped(p.pub, queue.MediaSkippedPayload{
			Object: queue.ObjectRef{Bucket: bucket, ObjectKey: key},
			Reason: reason,
		})
	}

	return &types.ProcessResult{Skipped: true, SkipReason: reason}
}

func (p *Processor) publishProcessed(bucket string, desc *types.AssetDescriptor) {
	if p.pub == nil {
		return
	}

	err := queue.PublishMediaProcessed(p.pub, queue.MediaProcessedPayload{
		AssetID:       desc.AssetID,
		UploaderID:    desc.UploaderID,
		Category:      desc.Category,
		OriginalKey:   desc.SourceKey,
		ProcessedKey:  desc.ProcessedKey,
		ThumbnailKeys: desc.ThumbnailKeys,
		ProcessedURL:  PublicReadURL(desc.ProcessedKey),
	}, queue.WithProducer("mediavault"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("asset_id", desc.AssetID).Msg("publish processed event failed")
	}
}

func (p *Processor) publishFailed(bucket, key string, cause error) {
	if p.pub == nil {
		return
	}

	err := queue.PublishMediaProcessFailed(p.pub, queue.MediaProcessFailedPayload{
		Object: queue.ObjectRef{Bucket: bucket, ObjectKey: key},
		Error:  cause.Error(),
	}, queue.WithProducer("mediavault"))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("publish failed event failed")
	}
}

// cacheStatus 把处理状态写入 KV 缓存，失败只记日志.
func (p *Processor) cacheStatus(ctx context.Context, assetID, status string) {
	if p.kv == nil {
		return
	}

	if err := p.kv.Set(ctx, StatusCacheKey(assetID), []byte(status), statusCacheTTL); err != nil {
		nlog.Logger().Warn().Err(err).Str("asset_id", assetID).Msg("status cache write failed")
	}
}

// mqPublisher 将 mq.Client 适配为 watermill Publisher.
type mqPublisher struct {
	mq  mqClient
	ctx context.Context
}

type mqClient interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

func (a mqPublisher) Publish(topic string, msgs ...*message.Message) error {
	return a.mq.Publish(a.ctx, topic, msgs...)
}

func (a mqPublisher) Close() error { return nil }
