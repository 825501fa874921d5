package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/media"
	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
	nlog "github.com/yeisme/mediavault/pkg/log"
)

// MetadataStore 单个元数据存储的抽象：一张业务表或通用处理台账.
type MetadataStore interface {
	// Name 存储名（表名），用于日志与事件
	Name() string
	// Upsert 写入/更新资产描述
	Upsert(ctx context.Context, desc *types.AssetDescriptor) error
	// MarkStatus 更新状态；该存储不认识此资产时返回 found=false
	MarkStatus(ctx context.Context, assetID string, status model.MediaStatus, extra map[string]string) (bool, error)
}

// MetadataSynchronizer 元数据同步器.
// 注册表在构造时解析一次：类目 → 存储句柄，取代逐表试错；
// 所有写入都是尽力而为——失败记日志，绝不传播给处理管线.
type MetadataSynchronizer struct {
	// generic 通用处理台账，所有类目都会写入
	generic MetadataStore
	// byCategory 类目专属业务表
	byCategory map[media.Category]MetadataStore
}

// NewMetadataSynchronizer 从请求上下文取 DB 客户端构造同步器.
func NewMetadataSynchronizer(c context.Context) *MetadataSynchronizer {
	dbClient := ctxPkg.GetDBClient(c)
	if dbClient == nil {
		return &MetadataSynchronizer{byCategory: map[media.Category]MetadataStore{}}
	}

	return NewMetadataSynchronizerWith(dbClient.GetDB())
}

// NewMetadataSynchronizerWith 显式注入 *gorm.DB 的构造函数，测试用.
func NewMetadataSynchronizerWith(db *gorm.DB) *MetadataSynchronizer {
	mediaCfg := configs.GetConfig().Media

	return &MetadataSynchronizer{
		generic: &processingLedger{db: db, table: mediaCfg.ProcessingTable},
		byCategory: map[media.Category]MetadataStore{
			media.CategoryTimelapse:    &timelapseStore{db: db, table: mediaCfg.TimelapseTable},
			media.CategoryProductImage: &productStore{db: db, table: mediaCfg.ProductTable},
		},
	}
}

// Upsert 同步资产描述：通用台账必写，类目有专属业务表时再写一份.
// 返回错误仅供调用方记录；处理管线必须把它当作非致命.
func (s *MetadataSynchronizer) Upsert(ctx context.Context, desc *types.AssetDescriptor) error {
	var firstErr error

	for _, store := range s.storesFor(media.Category(desc.Category)) {
		if err := store.Upsert(ctx, desc); err != nil {
			nlog.Logger().Warn().Err(err).
				Str("store", store.Name()).
				Str("asset_id", desc.AssetID).
				Msg("metadata upsert failed")

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// MarkStatus 更新资产状态：依次询问台账与业务表，任一存储认领即成功.
func (s *MetadataSynchronizer) MarkStatus(ctx context.Context, assetID string, status model.MediaStatus, extra map[string]string) error {
	stores := []MetadataStore{s.generic}
	for _, st := range s.byCategory {
		stores = append(stores, st)
	}

	var firstErr error

	for _, store := range stores {
		if store == nil {
			continue
		}

		found, err := store.MarkStatus(ctx, assetID, status, extra)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		if found {
			return nil
		}
	}

	if firstErr != nil {
		return firstErr
	}

	return fmt.Errorf("no metadata store owns asset %s", assetID)
}

// storesFor 解析类目对应的存储集合：通用台账 + 可选业务表.
func (s *MetadataSynchronizer) storesFor(cat media.Category) []MetadataStore {
	stores := make([]MetadataStore, 0, 2)
	if s.generic != nil {
		stores = append(stores, s.generic)
	}

	if st, ok := s.byCategory[cat]; ok {
		stores = append(stores, st)
	}

	return stores
}

// -------------------------- 通用处理台账 --------------------------

// processingLedger 通用处理台账，每个进入管线的对象一条记录.
type processingLedger struct {
	db    *gorm.DB
	table string
}

func (l *processingLedger) Name() string { return l.table }

func (l *processingLedger) Upsert(ctx context.Context, desc *types.AssetDescriptor) error {
	thumbs, err := sonic.MarshalString(desc.ThumbnailKeys)
	if err != nil {
		return fmt.Errorf("marshal thumbnail keys: %w", err)
	}

	processedAt := desc.ProcessedAt
	rec := model.MediaProcessing{
		AssetID:         desc.AssetID,
		UploaderID:      desc.UploaderID,
		SourceKey:       desc.SourceKey,
		ProcessedKey:    desc.ProcessedKey,
		FileName:        desc.FileName,
		Category:        desc.Category,
		ContentType:     desc.ContentType,
		Size:            desc.Size,
		ETag:            desc.ETag,
		Status:          model.StatusProcessed,
		ThumbnailsJSON:  thumbs,
		DurationSeconds: desc.DurationSeconds,
		ProcessedAt:     &processedAt,
	}

	// 同一 uploader+source 的重复处理更新既有记录（幂等）
	return l.db.WithContext(ctx).Table(l.table).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "uploader_id"}, {Name: "source_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"processed_key", "file_name", "category", "content_type",
				"size", "e_tag", "status", "thumbnails_json", "duration_seconds", "processed_at", "updated_at",
			}),
		}).
		Create(&rec).Error
}

func (l *processingLedger) MarkStatus(ctx context.Context, assetID string, status model.MediaStatus, extra map[string]string) (bool, error) {
	updates := map[string]any{"status": status, "updated_at": time.Now()}
	if msg, ok := extra["error"]; ok && msg != "" {
		updates["error"] = msg
	}

	res := l.db.WithContext(ctx).Table(l.table).
		Where("asset_id = ?", assetID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// -------------------------- 延时摄影业务表 --------------------------

type timelapseStore struct {
	db    *gorm.DB
	table string
}

func (t *timelapseStore) Name() string { return t.table }

func (t *timelapseStore) Upsert(ctx context.Context, desc *types.AssetDescriptor) error {
	return upsertByMediaURL(ctx, t.db, t.table, "media_url", desc)
}

func (t *timelapseStore) MarkStatus(ctx context.Context, assetID string, status model.MediaStatus, extra map[string]string) (bool, error) {
	return markStatusByURL(ctx, t.db, t.table, "media_url", status, extra)
}

// -------------------------- 商品图业务表 --------------------------

type productStore struct {
	db    *gorm.DB
	table string
}

func (p *productStore) Name() string { return p.table }

func (p *productStore) Upsert(ctx context.Context, desc *types.AssetDescriptor) error {
	return upsertByMediaURL(ctx, p.db, p.table, "image_url", desc)
}

func (p *productStore) MarkStatus(ctx context.Context, assetID string, status model.MediaStatus, extra map[string]string) (bool, error) {
	return markStatusByURL(ctx, p.db, p.table, "image_url", status, extra)
}

// upsertByMediaURL 业务表按原始上传 URL 定位记录回填处理结果；
// 应用侧尚未建档时补插一条，保证处理结果不丢.
func upsertByMediaURL(ctx context.Context, db *gorm.DB, table, urlColumn string, desc *types.AssetDescriptor) error {
	originalURL := PublicReadURL(desc.SourceKey)

	var thumbURL string
	if len(desc.ThumbnailKeys) > 0 {
		thumbURL = PublicReadURL(desc.ThumbnailKeys[0])
	}

	now := time.Now()
	updates := map[string]any{
		"thumbnail_url": thumbURL,
		"status":        model.StatusProcessed,
		"processed_at":  desc.ProcessedAt,
		"updated_at":    now,
	}

	res := db.WithContext(ctx).Table(table).
		Where(urlColumn+" = ?", originalURL).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected > 0 {
		return nil
	}

	row := map[string]any{
		"user_id":       desc.UploaderID,
		urlColumn:       originalURL,
		"thumbnail_url": thumbURL,
		"status":        model.StatusProcessed,
		"processed_at":  desc.ProcessedAt,
		"created_at":    now,
		"updated_at":    now,
	}

	return db.WithContext(ctx).Table(table).Create(row).Error
}

// markStatusByURL 业务表按 URL 匹配更新状态；extra 缺少 url 时视为不认领.
func markStatusByURL(ctx context.Context, db *gorm.DB, table, urlColumn string, status model.MediaStatus, extra map[string]string) (bool, error) {
	url, ok := extra["url"]
	if !ok || url == "" {
		return false, nil
	}

	res := db.WithContext(ctx).Table(table).
		Where(urlColumn+" = ?", url).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}
