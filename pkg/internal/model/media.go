package model

import (
	"time"

	"gorm.io/gorm"
)

// MediaStatus 媒体处理状态机：PROCESSING → PROCESSED / FAILED，删除后标记 DELETED.
type MediaStatus string

const (
	StatusProcessing MediaStatus = "PROCESSING"
	StatusProcessed  MediaStatus = "PROCESSED"
	StatusFailed     MediaStatus = "FAILED"
	StatusDeleted    MediaStatus = "DELETED"
)

// MediaProcessing 媒体处理台账，每个进入管线的对象一条记录.
type MediaProcessing struct {
	// AssetID ULID，处理器生成
	AssetID string `gorm:"primaryKey;size:26" json:"asset_id"`
	// 上传者标识，和源对象键一起唯一
	UploaderID string `gorm:"size:255;index:idx_uploader_source,unique;index" json:"uploader_id"`
	// 源对象键（uploads/ 前缀），确保在 uploader 下唯一
	SourceKey string `gorm:"size:1024;index:idx_uploader_source,unique;index" json:"source_key"`
	// 处理后对象键（processed/ 前缀）
	ProcessedKey string      `gorm:"size:1024;index" json:"processed_key"`
	FileName     string      `gorm:"size:512"        json:"file_name"`
	Category     string      `gorm:"size:128;index"  json:"category"`
	ContentType  string      `gorm:"size:255"        json:"content_type"`
	Size         int64       `json:"size"`
	ETag         string      `gorm:"size:64"         json:"etag"`
	Status       MediaStatus `gorm:"size:32;index"   json:"status"`
	// ThumbnailsJSON 缩略图键列表，JSON 字符串存储
	ThumbnailsJSON string `gorm:"type:text" json:"thumbnails_json"`
	// 失败时的错误摘要
	Error string `gorm:"type:text" json:"error,omitempty"`
	// 视频时长（秒），图片为 0
	DurationSeconds float64    `json:"duration_seconds"`
	ProcessedAt     *time.Time `gorm:"index" json:"processed_at,omitempty"`
	// 软删除与审计
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TimelapseMedia 延时摄影业务表，元数据同步器按处理后 URL 回填.
type TimelapseMedia struct {
	ID     uint   `gorm:"primaryKey"     json:"id"`
	UserID string `gorm:"size:255;index" json:"user_id"`
	// MediaURL 原始上传 URL，同步时据此定位记录
	MediaURL     string      `gorm:"size:2048;index" json:"media_url"`
	ThumbnailURL string      `gorm:"size:2048"       json:"thumbnail_url"`
	Status       MediaStatus `gorm:"size:32;index"   json:"status"`
	ProcessedAt  *time.Time  `json:"processed_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ProductMedia 商品图业务表，元数据同步器按处理后 URL 回填.
type ProductMedia struct {
	ID     uint   `gorm:"primaryKey"     json:"id"`
	UserID string `gorm:"size:255;index" json:"user_id"`
	// ImageURL 原始上传 URL，同步时据此定位记录
	ImageURL     string      `gorm:"size:2048;index" json:"image_url"`
	ThumbnailURL string      `gorm:"size:2048"       json:"thumbnail_url"`
	Status       MediaStatus `gorm:"size:32;index"   json:"status"`
	ProcessedAt  *time.Time  `json:"processed_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
