package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// newTestDB 打开内存 SQLite 并建好三张元数据表.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.Table("media_processing").AutoMigrate(&model.MediaProcessing{}); err != nil {
		t.Fatalf("migrate media_processing: %v", err)
	}

	if err := db.Table("timelapse_media").AutoMigrate(&model.TimelapseMedia{}); err != nil {
		t.Fatalf("migrate timelapse_media: %v", err)
	}

	if err := db.Table("product_media").AutoMigrate(&model.ProductMedia{}); err != nil {
		t.Fatalf("migrate product_media: %v", err)
	}

	return db
}

func testDescriptor(category string) *types.AssetDescriptor {
	return &types.AssetDescriptor{
		AssetID:       "01HTESTASSETID0000000000AA",
		UploaderID:    "u123",
		Category:      category,
		SourceKey:     "uploads/u123/1700000000000-photo.jpg",
		ProcessedKey:  "processed/" + category + "/u123/1700000000000-photo.jpg",
		FileName:      "photo.jpg",
		ContentType:   "image/jpeg",
		Size:          1024,
		ETag:          "etag-1",
		Width:         2000,
		Height:        1000,
		ThumbnailKeys: []string{"thumbnails/" + category + "/u123/1700000000000-photo_200.jpg"},
		ProcessedAt:   time.UnixMilli(1700000001000),
	}
}

// TestUpsertWritesGenericLedger 任何类目都写入通用处理台账.
func TestUpsertWritesGenericLedger(t *testing.T) {
	initTestConfig(t)

	db := newTestDB(t)
	sync := service.NewMetadataSynchronizerWith(db)

	if err := sync.Upsert(context.Background(), testDescriptor("media")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var row model.MediaProcessing
	if err := db.Table("media_processing").Where("asset_id = ?", "01HTESTASSETID0000000000AA").First(&row).Error; err != nil {
		t.Fatalf("ledger row missing: %v", err)
	}

	if row.Status != model.StatusProcessed {
		t.Errorf("status = %s, want PROCESSED", row.Status)
	}

	if row.Category != "media" {
		t.Errorf("category = %s", row.Category)
	}
}

// TestUpsertIdempotent 同一 uploader+source 重复同步更新既有记录.
func TestUpsertIdempotent(t *testing.T) {
	initTestConfig(t)

	db := newTestDB(t)
	sync := service.NewMetadataSynchronizerWith(db)

	desc := testDescriptor("media")
	if err := sync.Upsert(context.Background(), desc); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	desc.Size = 2048
	if err := sync.Upsert(context.Background(), desc); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	db.Table("media_processing").Where("uploader_id = ? AND source_key = ?", "u123", desc.SourceKey).Count(&count)

	if count != 1 {
		t.Errorf("row count = %d, want 1 (upsert)", count)
	}
}

// TestUpsertRoutesTimelapse 延时摄影类目同时回填业务表.
func TestUpsertRoutesTimelapse(t *testing.T) {
	initTestConfig(t)

	db := newTestDB(t)
	sync := service.NewMetadataSynchronizerWith(db)

	if err := sync.Upsert(context.Background(), testDescriptor("timelapse")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var count int64
	db.Table("timelapse_media").Where("user_id = ?", "u123").Count(&count)

	if count != 1 {
		t.Errorf("timelapse row count = %d, want 1", count)
	}
}

// TestUpsertUpdatesExistingBusinessRow 应用侧已建档时按原始 URL 回填而非新插.
func TestUpsertUpdatesExistingBusinessRow(t *testing.T) {
	initTestConfig(t)

	db := newTestDB(t)
	sync := service.NewMetadataSynchronizerWith(db)

	desc := testDescriptor("timelapse")
	originalURL := service.PublicReadURL(desc.SourceKey)

	db.Table("timelapse_media").Create(map[string]any{
		"user_id":    "u123",
		"media_url":  originalURL,
		"status":     model.StatusProcessing,
		"created_at": time.Now(),
		"updated_at": time.Now(),
	})

	if err := sync.Upsert(context.Background(), desc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var count int64
	db.Table("timelapse_media").Where("media_url = ?", originalURL).Count(&count)

	if count != 1 {
		t.Errorf("row count = %d, want 1 (update, not insert)", count)
	}

	var row model.TimelapseMedia
	db.Table("timelapse_media").Where("media_url = ?", originalURL).First(&row)

	if row.Status != model.StatusProcessed {
		t.Errorf("status = %s, want PROCESSED", row.Status)
	}

	if row.ThumbnailURL == "" {
		t.Error("thumbnail url not backfilled")
	}
}

// TestMarkStatusByAssetID 台账按资产 ID 认领状态更新.
func TestMarkStatusByAssetID(t *testing.T) {
	initTestConfig(t)

	db := newTestDB(t)
	sync := service.NewMetadataSynchronizerWith(db)

	if err := sync.Upsert(context.Background(), testDescriptor("media")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	err := sync.MarkStatus(context.Background(), "01HTESTASSETID0000000000AA", model.StatusDeleted, nil)
	if err != nil {
		t.Fatalf("MarkStatus: %v", err)
	}

	var row model.MediaProcessing
	db.Table("media_processing").Where("asset_id = ?", "01HTESTASSETID0000000000AA").First(&row)

	if row.Status != model.StatusDeleted {
		t.Errorf("status = %s, want DELETED", row.Status)
	}
}

// TestMarkStatusUnknownAsset 没有任何存储认领时返回错误（调用方决定是否忽略）.
func TestMarkStatusUnknownAsset(t *testing.T) {
	initTestConfig(t)

	sync := service.NewMetadataSynchronizerWith(newTestDB(t))

	if err := sync.MarkStatus(context.Background(), "no-such-asset", model.StatusDeleted, nil); err == nil {
		t.Fatal("expected error for unowned asset")
	}
}
