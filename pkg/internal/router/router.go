// Package router 管理路由配置，将媒体管线的处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAll 在 /api/v1 下注册全部业务路由.
func RegisterAll(e *gin.Engine) {
	v1 := e.Group("/api/v1")

	RegisterMediaRoutes(v1)
	RegisterHealthCheckRoute(v1)
	RegisterSchedulerRoutes(v1)
}
