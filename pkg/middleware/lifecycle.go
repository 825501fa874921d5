package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/internal/service"
)

type lifecycleKey struct{}

// LifecycleMiddleware 将常驻的生命周期管理器注入到context中.
// 清理队列归实例所有，必须全局唯一，不能按请求新建.
func LifecycleMiddleware(m *service.LifecycleManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), lifecycleKey{}, m)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetLifecycle 从context中获取生命周期管理器.
func GetLifecycle(c *gin.Context) *service.LifecycleManager {
	if m, ok := c.Request.Context().Value(lifecycleKey{}).(*service.LifecycleManager); ok {
		return m
	}

	return nil
}
