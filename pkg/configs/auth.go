package configs

import (
	"github.com/spf13/viper"
)

// AuthConfig 身份认证配置.
// 认证由前置的 oauth2-proxy / 网关完成，本服务只消费其注入的请求头；
// 上传者标识解析失败时管线回退到 "anonymous"（策略见 issuer）.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// SkipPaths 跳过认证的路径前缀（如 /metrics, /health）.
	SkipPaths []string `mapstructure:"skip_paths"`
	// DevAllowQuery 开发模式下允许 query 参数 user 兜底.
	DevAllowQuery bool `mapstructure:"dev_allow_query"`
}

// setDefaults 设置认证配置的默认值.
func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.skip_paths", []string{"/metrics", "/health"})
	v.SetDefault("auth.dev_allow_query", false)
}
