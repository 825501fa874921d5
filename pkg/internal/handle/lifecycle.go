package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/middleware"
	"github.com/yeisme/mediavault/pkg/rule"
)

// lifecycleFrom 取出常驻生命周期管理器，未注入属于装配错误.
func lifecycleFrom(c *gin.Context) *service.LifecycleManager {
	m := middleware.GetLifecycle(c)
	if m == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lifecycle manager not initialized"})
	}

	return m
}

// BatchDeleteAssets 批量删除资产的对象与元数据，聚合部分失败.
//
//	@Summary		批量删除资产
//	@Description	删除每个条目的全部对象引用并标记元数据为 DELETED，单条失败不影响其余
//	@Tags			生命周期
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.BatchDeleteRequest	true	"批量删除请求"
//	@Success		200		{object}	types.BatchDeleteResult		"聚合结果"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Router			/api/v1/media/assets [delete]
func BatchDeleteAssets(c *gin.Context) {
	var req types.BatchDeleteRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	m := lifecycleFrom(c)
	if m == nil {
		return
	}

	c.JSON(http.StatusOK, m.BatchDelete(c.Request.Context(), req.Items))
}

// ScheduleCleanup 把一组对象引用放进异步清理队列，立即返回入队数.
//
//	@Summary		异步清理排队
//	@Description	不可解析的引用被丢弃并告警；队列满时丢弃多余引用
//	@Tags			生命周期
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.ScheduleCleanupRequest	true	"清理请求"
//	@Success		202		{object}	types.ScheduleCleanupResponse	"入队结果"
//	@Failure		400		{object}	map[string]string				"请求参数错误"
//	@Router			/api/v1/media/cleanup [post]
func ScheduleCleanup(c *gin.Context) {
	var req types.ScheduleCleanupRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	m := lifecycleFrom(c)
	if m == nil {
		return
	}

	enqueued := m.ScheduleCleanup(req.Refs, req.Reason)

	c.JSON(http.StatusAccepted, types.ScheduleCleanupResponse{Enqueued: enqueued})
}

// SweepOrphans 同步执行一次指定上传者的孤儿清扫.
//
//	@Summary		孤儿清扫
//	@Description	删除超过保留窗口且没有处理后对应物的原始上传对象
//	@Tags			生命周期
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.SweepRequest	true	"清扫请求"
//	@Success		200		{object}	types.SweepResult	"清扫结果"
//	@Failure		400		{object}	map[string]string	"请求参数错误"
//	@Failure		500		{object}	map[string]string	"清扫失败"
//	@Router			/api/v1/media/sweep [post]
func SweepOrphans(c *gin.Context) {
	var req types.SweepRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		badRequest(c, err)
		return
	}

	m := lifecycleFrom(c)
	if m == nil {
		return
	}

	result, err := m.SweepOrphans(c.Request.Context(), req.OwnerID)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
