package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/handle"
)

// RegisterMediaRoutes 注册媒体管线相关路由.
func RegisterMediaRoutes(g *gin.RouterGroup) {
	mediaRoutes := g.Group("/media")
	{
		// 预签名上传签发
		mediaRoutes.POST("/uploads", handle.IssueUploadURL)

		// 对象事件补偿触发（正常路径走 MQ 消费者）
		mediaRoutes.POST("/events", handle.ProcessEvent)

		// 统一操作分发
		mediaRoutes.POST("/dispatch", handle.DispatchOperation)

		// 资产查询
		assetsGroup := mediaRoutes.Group("/assets")
		{
			assetsGroup.GET("", handle.ListAssets)
			assetsGroup.DELETE("", handle.BatchDeleteAssets)
			assetsGroup.GET("/:id", handle.GetAsset)
			assetsGroup.GET("/:id/status", handle.AssetStatus)
		}

		// 生命周期
		mediaRoutes.POST("/cleanup", handle.ScheduleCleanup)
		mediaRoutes.POST("/sweep", handle.SweepOrphans)
	}
}
