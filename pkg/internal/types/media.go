package types

import "time"

// ObjectEvent 对象创建事件载荷，仅携带 bucket 与 key，其余状态由处理器重新推导.
type ObjectEvent struct {
	Bucket string `json:"bucket"`
	Key    string `binding:"required" json:"key" rule:"required"`
}

// ProcessResult 单个对象的处理结果.
type ProcessResult struct {
	// Skipped 为 true 表示事件属于预期噪音（格式不符、非媒体类型），不是失败
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`

	AssetID       string            `json:"asset_id,omitempty"`
	Category      string            `json:"category,omitempty"`
	OriginalURL   string            `json:"original_url,omitempty"`
	ProcessedURL  string            `json:"processed_url,omitempty"`
	ThumbnailURLs []string          `json:"thumbnail_urls,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AssetDescriptor 处理完成后描述资产的结构，交给元数据同步器.
type AssetDescriptor struct {
	AssetID         string    `json:"asset_id"`
	UploaderID      string    `json:"uploader_id"`
	Category        string    `json:"category"`
	SourceKey       string    `json:"source_key"`
	ProcessedKey    string    `json:"processed_key"`
	FileName        string    `json:"file_name"`
	ContentType     string    `json:"content_type"`
	Size            int64     `json:"size"`
	ETag            string    `json:"etag"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	ThumbnailKeys   []string  `json:"thumbnail_keys,omitempty"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// AssetItem 资产列表项.
type AssetItem struct {
	AssetID       string     `json:"asset_id"`
	UploaderID    string     `json:"uploader_id"`
	Category      string     `json:"category"`
	FileName      string     `json:"file_name"`
	Status        string     `json:"status"`
	ProcessedURL  string     `json:"processed_url,omitempty"`
	ThumbnailURLs []string   `json:"thumbnail_urls,omitempty"`
	Size          int64      `json:"size"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ListAssetsRequest 资产列表查询.
type ListAssetsRequest struct {
	Category string `form:"category" json:"category,omitempty"`
	Status   string `form:"status"   json:"status,omitempty"`
	Limit    int    `form:"limit"    json:"limit,omitempty"    rule:"omitempty,min=1,max=500"`
	Offset   int    `form:"offset"   json:"offset,omitempty"   rule:"omitempty,min=0"`
}

// ListAssetsResponse 资产列表响应.
type ListAssetsResponse struct {
	Items []AssetItem `json:"items"`
	Total int64       `json:"total"`
}
