package types

// DispatchRequest 生命周期/管线操作的统一调用形.
// 未知 operation 返回 {status:"error", message:"Unknown operation: <op>"} 而不是抛错.
type DispatchRequest struct {
	Operation string         `binding:"required" json:"operation" rule:"required"`
	Data      map[string]any `json:"data"`
}

// DispatchResponse 统一调用的响应.
type DispatchResponse struct {
	Status  string `json:"status"` // success | error
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// BatchDeleteItem 批量删除的单项：一个资产 id 与其全部对象引用.
type BatchDeleteItem struct {
	ID       string   `binding:"required" json:"id"`
	Refs     []string `json:"refs"`
	Category string   `json:"category,omitempty"`
}

// BatchDeleteRequest 批量删除请求.
type BatchDeleteRequest struct {
	Items []BatchDeleteItem `binding:"required" json:"items"`
}

// BatchDeleteResult 批量删除聚合结果：部分失败是常态而非异常.
type BatchDeleteResult struct {
	Success bool     `json:"success"` // failed 为空时为 true
	Failed  []string `json:"failed"`  // 失败的条目 id
}

// SweepRequest 孤儿清扫请求.
type SweepRequest struct {
	OwnerID string `binding:"required" json:"owner_id" rule:"required"`
}

// SweepResult 孤儿清扫结果.
type SweepResult struct {
	DeletedCount int `json:"deleted_count"`
}

// ScheduleCleanupRequest 异步清理排队请求.
type ScheduleCleanupRequest struct {
	Refs   []string `binding:"required" json:"refs"`
	Reason string   `json:"reason,omitempty"`
}

// ScheduleCleanupResponse 排队结果：返回实际入队数（不可解析引用被丢弃）.
type ScheduleCleanupResponse struct {
	Enqueued int `json:"enqueued"`
}

// UpdateStatusRequest 资产状态更新请求.
type UpdateStatusRequest struct {
	AssetID string `binding:"required" json:"asset_id"`
	Status  string `binding:"required" json:"status" rule:"required,oneof=PROCESSING PROCESSED FAILED DELETED"`
	Error   string `json:"error,omitempty"`
}
