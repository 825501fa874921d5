package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 对象存储领域 --------------------------

// ObjectRef 标识对象在对象存储中的位置与基础元数据.
type ObjectRef struct {
	Bucket      string `json:"bucket"`
	ObjectKey   string `json:"object_key"`
	ETag        string `json:"etag,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// ObjectUploadedPayload 新对象写入 uploads 命名空间.
// 只携带 bucket 与 key，其余状态由处理器从键与对象体重新推导.
type ObjectUploadedPayload struct {
	Object ObjectRef `json:"object"`
}

// ObjectDeletedPayload 对象被删除.
type ObjectDeletedPayload struct {
	Object ObjectRef `json:"object"`
	Reason string    `json:"reason,omitempty"`
}

// -------------------------- 媒体处理领域 --------------------------

// MediaProcessedPayload 处理完成：主资产与缩略图已写入对象存储.
type MediaProcessedPayload struct {
	AssetID       string   `json:"asset_id"`
	UploaderID    string   `json:"uploader_id"`
	Category      string   `json:"category"`
	OriginalKey   string   `json:"original_key"`
	ProcessedKey  string   `json:"processed_key"`
	ThumbnailKeys []string `json:"thumbnail_keys,omitempty"`
	ProcessedURL  string   `json:"processed_url,omitempty"`
}

// MediaProcessFailedPayload 处理失败.
type MediaProcessFailedPayload struct {
	Object ObjectRef `json:"object"`
	Error  string    `json:"error"`
}

// MediaSkippedPayload 事件被跳过（预期噪音，不是失败）.
type MediaSkippedPayload struct {
	Object ObjectRef `json:"object"`
	Reason string    `json:"reason"`
}

// -------------------------- 元数据同步领域 --------------------------

// MetaSyncedPayload 元数据成功同步.
type MetaSyncedPayload struct {
	AssetID  string `json:"asset_id"`
	Category string `json:"category"`
	Store    string `json:"store,omitempty"` // 落到的存储表
}

// MetaSyncFailedPayload 元数据同步失败（仅记录，不影响处理结果）.
type MetaSyncFailedPayload struct {
	AssetID  string `json:"asset_id"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// -------------------------- 存储回收领域 --------------------------

// CleanupCompletedPayload 一批清理任务完成.
type CleanupCompletedPayload struct {
	Reason  string `json:"reason,omitempty"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
}
