package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultUploadTTL           = 3600          // 预签名上传 URL 有效期（秒）
	DefaultThumbnailQuality    = 85            // 缩略图 JPEG 质量
	DefaultCleanupBatchSize    = 10            // 清理队列单批大小
	DefaultCleanupPauseMillis  = 500           // 清理批次间暂停（毫秒）
	DefaultCleanupQueueSize    = 1024          // 清理队列容量
	DefaultOrphanRetentionDays = 30            // 原始上传保留窗口（天）
	DefaultUploadsPrefix       = "uploads/"    // 原始上传键前缀
	DefaultProcessedPrefix     = "processed/"  // 处理产物键前缀
	DefaultThumbnailsPrefix    = "thumbnails/" // 缩略图键前缀
)

// MediaConfig 媒体管线配置.
type MediaConfig struct {
	// UploadTTLSeconds 预签名上传 URL 有效期（秒）.
	UploadTTLSeconds int `mapstructure:"upload_ttl_seconds"    rule:"min=60,max=86400"`
	// ThumbnailSizes 缩略图边长阶梯（像素，方形中心裁剪）.
	ThumbnailSizes []int `mapstructure:"thumbnail_sizes"`
	// ThumbnailQuality 缩略图 JPEG 质量.
	ThumbnailQuality int `mapstructure:"thumbnail_quality"     rule:"min=1,max=100"`
	// CleanupBatchSize 清理队列单批大小.
	CleanupBatchSize int `mapstructure:"cleanup_batch_size"    rule:"min=1,max=1000"`
	// CleanupPauseMillis 批次之间的暂停，保护存储后端请求配额.
	CleanupPauseMillis int `mapstructure:"cleanup_pause_millis" rule:"min=0,max=60000"`
	// CleanupQueueSize 清理队列容量（进程内，不落盘）.
	CleanupQueueSize int `mapstructure:"cleanup_queue_size"    rule:"min=1"`
	// OrphanRetentionDays 孤儿清扫保留窗口（天）.
	OrphanRetentionDays int `mapstructure:"orphan_retention_days" rule:"min=1"`

	// 元数据表名，按类目路由.
	TimelapseTable  string `mapstructure:"timelapse_table"`
	ProductTable    string `mapstructure:"product_table"`
	ProcessingTable string `mapstructure:"processing_table"`
}

// GetUploadTTL 返回预签名上传有效期.
func (c *MediaConfig) GetUploadTTL() time.Duration {
	return time.Duration(c.UploadTTLSeconds) * time.Second
}

// GetCleanupPause 返回批次间暂停时长.
func (c *MediaConfig) GetCleanupPause() time.Duration {
	return time.Duration(c.CleanupPauseMillis) * time.Millisecond
}

// GetOrphanRetention 返回孤儿保留窗口.
func (c *MediaConfig) GetOrphanRetention() time.Duration {
	return time.Duration(c.OrphanRetentionDays) * 24 * time.Hour
}

// setDefaults 设置媒体管线配置的默认值.
func (c *MediaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("media.upload_ttl_seconds", DefaultUploadTTL)
	v.SetDefault("media.thumbnail_sizes", []int{200, 400, 800})
	v.SetDefault("media.thumbnail_quality", DefaultThumbnailQuality)
	v.SetDefault("media.cleanup_batch_size", DefaultCleanupBatchSize)
	v.SetDefault("media.cleanup_pause_millis", DefaultCleanupPauseMillis)
	v.SetDefault("media.cleanup_queue_size", DefaultCleanupQueueSize)
	v.SetDefault("media.orphan_retention_days", DefaultOrphanRetentionDays)
	v.SetDefault("media.timelapse_table", "timelapse_media")
	v.SetDefault("media.product_table", "product_media")
	v.SetDefault("media.processing_table", "media_processing")
}
