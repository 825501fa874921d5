// Package middleware 提供中间件功能.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/mediavault/pkg/configs"
	ctxPkg "github.com/yeisme/mediavault/pkg/context"
)

// AuthMiddleware 基于 oauth2-proxy / 网关注入的请求头做统一身份认证校验，
// 并把解析出的上传者标识注入请求上下文：
//   - 优先要求存在 X-Auth-Request-Email 或 X-Forwarded-Email
//   - 支持通过配置跳过某些路径（如 /metrics, /health）
//   - 开发模式可允许 query user 兜底（由 configs.auth.dev_allow_query 控制）
//
// 认证关闭或路径被跳过时不强制身份，但请求头里有身份仍会注入，
// 下游 issuer 按 上下文身份 > 显式参数 > anonymous 解析.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := resolveIdentity(c, conf)

		if identity != "" {
			ctx := ctxPkg.WithUploader(c.Request.Context(), identity)
			c.Request = c.Request.WithContext(ctx)
		}

		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		if identity == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}

// resolveIdentity 从网关注入的请求头提取身份，开发模式允许 query 兜底.
func resolveIdentity(c *gin.Context, conf configs.AuthConfig) string {
	identity := strings.TrimSpace(c.GetHeader("X-Auth-Request-Email"))
	if identity == "" {
		identity = strings.TrimSpace(c.GetHeader("X-Forwarded-Email"))
	}

	if identity == "" && conf.DevAllowQuery {
		identity = strings.TrimSpace(c.Query("user"))
	}

	return identity
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
