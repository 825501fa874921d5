package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// 统一调用形支持的操作名.
const (
	OpDeleteS3Object       = "deleteS3Object"
	OpProcessMedia         = "processMedia"
	OpUpdateMediaStatus    = "updateMediaStatus"
	OpCleanupOrphanedMedia = "cleanupOrphanedMedia"
	OpBatchDeleteMedia     = "batchDeleteMedia"
)

// Dispatcher 生命周期/管线操作的统一入口.
// 未知操作返回 {status:"error", message:"Unknown operation: <op>"} 而不是抛错.
type Dispatcher struct {
	processor *Processor
	lifecycle *LifecycleManager
	meta      *MetadataSynchronizer
}

// NewDispatcher 组合各服务构造分发器.
func NewDispatcher(processor *Processor, lifecycle *LifecycleManager, meta *MetadataSynchronizer) *Dispatcher {
	return &Dispatcher{processor: processor, lifecycle: lifecycle, meta: meta}
}

// Dispatch 按 operation 路由到对应服务.
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.DispatchRequest) *types.DispatchResponse {
	switch req.Operation {
	case OpDeleteS3Object:
		return d.deleteS3Object(ctx, req.Data)
	case OpProcessMedia:
		return d.processMedia(ctx, req.Data)
	case OpUpdateMediaStatus:
		return d.updateMediaStatus(ctx, req.Data)
	case OpCleanupOrphanedMedia:
		return d.cleanupOrphanedMedia(ctx, req.Data)
	case OpBatchDeleteMedia:
		return d.batchDeleteMedia(ctx, req.Data)
	default:
		return &types.DispatchResponse{
			Status:  "error",
			Message: fmt.Sprintf("Unknown operation: %s", req.Operation),
		}
	}
}

// decodeData 把松散的 data 映射解码到强类型请求结构.
func decodeData[T any](data map[string]any) (*T, error) {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return nil, err
	}

	var out T
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func errorResponse(err error) *types.DispatchResponse {
	return &types.DispatchResponse{Status: "error", Message: err.Error()}
}

func successResponse(result any) *types.DispatchResponse {
	return &types.DispatchResponse{Status: "success", Result: result}
}

func (d *Dispatcher) deleteS3Object(ctx context.Context, data map[string]any) *types.DispatchResponse {
	req, err := decodeData[struct {
		Ref string `json:"ref"`
	}](data)
	if err != nil {
		return errorResponse(err)
	}

	if err := d.lifecycle.DeleteObject(ctx, req.Ref); err != nil {
		return errorResponse(err)
	}

	return successResponse(nil)
}

func (d *Dispatcher) processMedia(ctx context.Context, data map[string]any) *types.DispatchResponse {
	req, err := decodeData[types.ObjectEvent](data)
	if err != nil {
		return errorResponse(err)
	}

	result, err := d.processor.Process(ctx, req.Bucket, req.Key)
	if err != nil {
		return errorResponse(err)
	}

	return successResponse(result)
}

func (d *Dispatcher) updateMediaStatus(ctx context.Context, data map[string]any) *types.DispatchResponse {
	req, err := decodeData[types.UpdateStatusRequest](data)
	if err != nil {
		return errorResponse(err)
	}

	extra := map[string]string{}
	if req.Error != "" {
		extra["error"] = req.Error
	}

	if err := d.meta.MarkStatus(ctx, req.AssetID, model.MediaStatus(req.Status), extra); err != nil {
		return errorResponse(err)
	}

	return successResponse(nil)
}

func (d *Dispatcher) cleanupOrphanedMedia(ctx context.Context, data map[string]any) *types.DispatchResponse {
	req, err := decodeData[types.SweepRequest](data)
	if err != nil {
		return errorResponse(err)
	}

	result, err := d.lifecycle.SweepOrphans(ctx, req.OwnerID)
	if err != nil {
		return errorResponse(err)
	}

	return successResponse(result)
}

func (d *Dispatcher) batchDeleteMedia(ctx context.Context, data map[string]any) *types.DispatchResponse {
	req, err := decodeData[types.BatchDeleteRequest](data)
	if err != nil {
		return errorResponse(err)
	}

	result := d.lifecycle.BatchDelete(ctx, req.Items)

	return successResponse(result)
}
