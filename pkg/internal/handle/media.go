package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/types"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/middleware"
)

// ProcessEvent 手动触发一次对象事件处理（正常路径走 MQ 消费者，这里用于补偿与调试）.
//
//	@Summary		处理对象上传事件
//	@Description	对指定对象执行媒体处理管线，跳过与成功都返回200
//	@Tags			处理
//	@Accept			json
//	@Produce		json
//	@Param			event	body		types.ObjectEvent	true	"对象事件"
//	@Success		200		{object}	types.ProcessResult	"处理结果"
//	@Failure		400		{object}	map[string]string	"请求参数错误"
//	@Failure		500		{object}	map[string]string	"处理失败（可重试）"
//	@Router			/api/v1/media/events [post]
func ProcessEvent(c *gin.Context) {
	var evt types.ObjectEvent
	if err := c.ShouldBind(&evt); err != nil {
		badRequest(c, err)
		return
	}

	if evt.Bucket == "" {
		evt.Bucket = configs.GetConfig().S3.BucketName
	}

	processor := service.NewProcessor(c.Request.Context())

	result, err := processor.Process(c.Request.Context(), evt.Bucket, evt.Key)
	if err != nil {
		log.Logger().Error().Err(err).Str("key", evt.Key).Msg("process event failed")
		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, result)
}

// DispatchOperation 统一操作入口：按 operation 字段路由到具体处理.
// 未知操作返回 200 + {status:"error"}，语义上是业务错误而不是协议错误.
//
//	@Summary		统一操作分发
//	@Description	支持 deleteS3Object / processMedia / updateMediaStatus / cleanupOrphanedMedia / batchDeleteMedia
//	@Tags			处理
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.DispatchRequest	true	"操作请求"
//	@Success		200		{object}	types.DispatchResponse	"操作结果"
//	@Failure		400		{object}	map[string]string		"请求参数错误"
//	@Router			/api/v1/media/dispatch [post]
func DispatchOperation(c *gin.Context) {
	var req types.DispatchRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()

	dispatcher := service.NewDispatcher(
		service.NewProcessor(ctx),
		middleware.GetLifecycle(c),
		service.NewMetadataSynchronizer(ctx),
	)

	c.JSON(http.StatusOK, dispatcher.Dispatch(ctx, &req))
}
