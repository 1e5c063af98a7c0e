package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAuthTokenTTLHours = 72 // 访问令牌有效期（小时）
)

// AuthConfig 认证配置（JWT Bearer）。
// Enabled=false 时服务退化为匿名公共文件池：所有记录的 owner 为空字符串.
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`         // 开启认证校验
	JWTSecret     string   `mapstructure:"jwt_secret"`      // HS256 签名密钥
	TokenTTLHours int      `mapstructure:"token_ttl_hours"` // 令牌有效期（小时）
	SkipPaths     []string `mapstructure:"skip_paths"`      // 跳过认证的路径前缀（如 /metrics、分享解析）
	DevAllowQuery bool     `mapstructure:"dev_allow_query"` // 开发模式允许用 ?user= 便于本地调试
}

// TokenTTL 返回令牌有效期.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.jwt_secret", "dropvault-dev-secret")
	v.SetDefault("auth.token_ttl_hours", DefaultAuthTokenTTLHours)
	v.SetDefault("auth.dev_allow_query", false)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/shares",
	})
}
